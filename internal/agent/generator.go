package agent

import (
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/prompt"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/registry"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// ResponseGenerator defines how participants are asked to answer and how
// their replies are decoded.
type ResponseGenerator interface {
	// Name is the registry key.
	Name() string

	// Format is the prompt answer layout (prompt.FormatJSON or FormatFreeText).
	Format() string

	// Critical asks participants to take a critical stance.
	Critical() bool

	// Decode turns one raw reply into a Response. It must not call the model.
	Decode(op Op, raw string) (Response, error)

	// ExtractsSolution reports whether the solution has to be obtained with
	// a separate extraction prompt after Decode.
	ExtractsSolution() bool
}

// Generators holds the built-in response generators.
var Generators = registry.New[ResponseGenerator]("response generator", types.CONFIG_UNKNOWN_GENERATOR)

func init() {
	Generators.MustRegister("json", jsonGenerator{})
	Generators.MustRegister("freetext", freeTextGenerator{})
	Generators.MustRegister("critical", jsonGenerator{critical: true})
}

// NewGenerator resolves a response generator by name.
func NewGenerator(name string) (ResponseGenerator, error) {
	return Generators.Get(name)
}

type jsonGenerator struct {
	critical bool
}

func (g jsonGenerator) Name() string {
	if g.critical {
		return "critical"
	}
	return "json"
}

func (jsonGenerator) Format() string { return prompt.FormatJSON }
func (g jsonGenerator) Critical() bool { return g.critical }
func (jsonGenerator) ExtractsSolution() bool { return false }
func (jsonGenerator) Decode(op Op, raw string) (Response, error) {
	return DecodeJSON(op, raw)
}

type freeTextGenerator struct{}

func (freeTextGenerator) Name() string { return "freetext" }
func (freeTextGenerator) Format() string { return prompt.FormatFreeText }
func (freeTextGenerator) Critical() bool { return false }
func (freeTextGenerator) ExtractsSolution() bool { return true }
func (freeTextGenerator) Decode(op Op, raw string) (Response, error) {
	return DecodeFreeText(op, raw)
}
