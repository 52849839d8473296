package coordinator

import (
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/dataset"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/memory"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/persona"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Result is the persisted record of one session. A failed session keeps
// Answer nil and sets Error.
type Result struct {
	SessionID        types.ID                       `json:"sessionId"`
	DatasetID        string                         `json:"datasetId"`
	ExampleID        string                         `json:"exampleId"`
	Instruction      string                         `json:"instruction"`
	Personas         []persona.Persona              `json:"personas"`
	Paradigm         string                         `json:"paradigm"`
	DecisionProtocol string                         `json:"decisionProtocol"`
	Input            []string                       `json:"input"`
	Context          []string                       `json:"context"`
	Answer           *string                        `json:"answer"`
	References       []string                       `json:"references"`
	Agreements       []memory.Agreement             `json:"agreements"`
	Turns            int                            `json:"turns"`
	Converged        bool                           `json:"converged"`
	ElapsedSeconds   float64                        `json:"elapsedSeconds"`
	GlobalMemory     []memory.Entry                 `json:"globalMemory"`
	AgentMemory      [][]memory.Entry               `json:"agentMemory"`
	VotesEachTurn    map[int]decision.VotingResults `json:"votesEachTurn,omitempty"`
	Error            string                         `json:"error,omitempty"`
}

// Failed reports whether the session ended with an error.
func (r Result) Failed() bool {
	return r.Error != "" || r.Answer == nil
}

// NewFailedResult records err for inst.
func NewFailedResult(inst dataset.Instance, paradigm, protocol string, err error) Result {
	r := baseResult(inst, paradigm, protocol)
	r.Error = err.Error()
	return r
}

func baseResult(inst dataset.Instance, paradigm, protocol string) Result {
	return Result{
		DatasetID:        inst.DatasetID,
		ExampleID:        inst.ExampleID,
		Instruction:      inst.Instruction,
		Paradigm:         paradigm,
		DecisionProtocol: protocol,
		Input:            inst.Input,
		Context:          inst.Context,
		References:       inst.References,
	}
}
