package prompt

import (
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/llm"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
)

// Response formats understood by the discussion templates.
const (
	FormatJSON     = "json"
	FormatFreeText = "freetext"
)

// Template names.
const (
	TemplateSystem      = "system"
	TemplateDraft       = "draft"
	TemplateImprove     = "improve"
	TemplateFeedback    = "feedback"
	TemplateExtract     = "extract"
	TemplateFinalAnswer = "final_answer"
	TemplateBallot      = "ballot"
	TemplateJudge       = "judge"
	TemplatePersona     = "persona"
)

// Discussion is everything a participant sees when it contributes.
type Discussion struct {
	Instruction        string
	Input              []string
	Context            []string
	Draft              string
	Persona            string
	PersonaDescription string
	Memories           []memory.Entry

	// Format selects the answer layout the model is asked for.
	Format   string
	Critical bool

	// Sentence bounds for feedback; zero disables the hint.
	MinSentences int
	MaxSentences int

	// DebateRound is 1-based; zero outside the debate paradigm.
	DebateRound  int
	DebateRounds int
}

// Extraction asks for the solution contained in a free-text reply.
type Extraction struct {
	Instruction string
	Input       []string
	Response    string
}

// FinalAnswer asks a participant to restate its answer before a vote.
type FinalAnswer struct {
	Instruction        string
	Input              []string
	Persona            string
	PersonaDescription string
	Solution           string
}

// Option is one answer on a ballot.
type Option struct {
	Persona    string
	Answer     string
	Confidence int
}

// Ballot asks a participant to vote among the final answers.
type Ballot struct {
	Instruction        string
	Input              []string
	Context            []string
	Persona            string
	PersonaDescription string
	Options            []Option

	// Method is one of "plain", "approval", "cumulative", "ranked".
	Method string

	// Alteration toggles: facts shows Context, confidence shows each
	// option's confidence, public shows persona names instead of labels.
	ShowFacts      bool
	ShowConfidence bool
	ShowPersonas   bool

	Points int
	Ranks  int
}

// Judge asks a neutral model to pick the best final answer.
type Judge struct {
	Instruction string
	Input       []string
	Options     []Option
}

// Persona asks for one more participant persona.
type Persona struct {
	Instruction string
	Input       []string
	Existing    []string
}

// Builder turns template data into chat messages.
type Builder struct {
	renderer *Renderer
}

// NewBuilder creates a builder over renderer.
func NewBuilder(renderer *Renderer) *Builder {
	return &Builder{renderer: renderer}
}

// Renderer returns the underlying renderer.
func (b *Builder) Renderer() *Renderer {
	return b.renderer
}

// Discussion renders the system prompt plus the user turn for a draft,
// improve or feedback call. op is the template name.
func (b *Builder) Discussion(op string, d Discussion) ([]llm.Message, error) {
	if d.Format == "" {
		d.Format = FormatJSON
	}

	system, err := b.renderer.Render(TemplateSystem, d)
	if err != nil {
		return nil, err
	}
	user, err := b.renderer.Render(op, d)
	if err != nil {
		return nil, err
	}

	return []llm.Message{llm.NewSystemMessage(system), llm.NewUserMessage(user)}, nil
}

// Extraction renders the solution extraction prompt.
func (b *Builder) Extraction(e Extraction) ([]llm.Message, error) {
	return b.single(TemplateExtract, e)
}

// FinalAnswer renders the pre-vote final answer prompt.
func (b *Builder) FinalAnswer(f FinalAnswer) ([]llm.Message, error) {
	return b.single(TemplateFinalAnswer, f)
}

// Ballot renders a voting prompt.
func (b *Builder) Ballot(v Ballot) ([]llm.Message, error) {
	return b.single(TemplateBallot, v)
}

// Judge renders the judge prompt.
func (b *Builder) Judge(j Judge) ([]llm.Message, error) {
	return b.single(TemplateJudge, j)
}

// Persona renders the persona generation prompt.
func (b *Builder) Persona(p Persona) ([]llm.Message, error) {
	return b.single(TemplatePersona, p)
}

func (b *Builder) single(name string, data any) ([]llm.Message, error) {
	content, err := b.renderer.Render(name, data)
	if err != nil {
		return nil, err
	}
	return []llm.Message{llm.NewUserMessage(content)}, nil
}
