package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var want = []Instance{
	{ExampleID: "q1", DatasetID: "trivia", Instruction: "Answer.", Input: []string{"Capital of France?"}, References: []string{"Paris"}},
	{ExampleID: "q2", DatasetID: "trivia", Instruction: "Answer.", Input: []string{"Capital of Peru?"}, Context: []string{"South America"}, References: []string{"Lima"}},
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json array",
			file: "data.json",
			content: `[
				{"exampleId": "q1", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of France?"], "references": ["Paris"]},
				{"exampleId": "q2", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of Peru?"], "context": ["South America"], "references": ["Lima"]}
			]`,
		},
		{
			name: "json wrapper",
			file: "data.json",
			content: `{"instances": [
				{"exampleId": "q1", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of France?"], "references": ["Paris"]},
				{"exampleId": "q2", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of Peru?"], "context": ["South America"], "references": ["Lima"]}
			]}`,
		},
		{
			name: "jsonl",
			file: "data.jsonl",
			content: `{"exampleId": "q1", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of France?"], "references": ["Paris"]}

{"exampleId": "q2", "datasetId": "trivia", "instruction": "Answer.", "input": ["Capital of Peru?"], "context": ["South America"], "references": ["Lima"]}
`,
		},
		{
			name: "yaml list",
			file: "data.yaml",
			content: `
- exampleId: q1
  datasetId: trivia
  instruction: Answer.
  input: ["Capital of France?"]
  references: [Paris]
- exampleId: q2
  datasetId: trivia
  instruction: Answer.
  input: ["Capital of Peru?"]
  context: [South America]
  references: [Lima]
`,
		},
		{
			name: "yaml wrapper",
			file: "data.yml",
			content: `
instances:
  - exampleId: q1
    datasetId: trivia
    instruction: Answer.
    input: ["Capital of France?"]
    references: [Paris]
  - exampleId: q2
    datasetId: trivia
    instruction: Answer.
    input: ["Capital of Peru?"]
    context: [South America]
    references: [Lima]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoad_SingleYAMLInstance(t *testing.T) {
	got, err := Load(writeFile(t, "one.yaml", "exampleId: q1\ninstruction: Answer.\ninput: [x]\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q1", got[0].ExampleID)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		code types.ErrorCode
	}{
		{"unsupported extension", "data.csv", "a,b", types.DATASET_PARSE_FAILED},
		{"malformed json", "data.json", "[{", types.DATASET_PARSE_FAILED},
		{"malformed jsonl line", "data.jsonl", "{\"exampleId\": \"q1\"}\nnot json\n", types.DATASET_PARSE_FAILED},
		{"missing instruction", "data.json", `[{"exampleId": "q1", "input": ["x"]}]`, types.DATASET_PARSE_FAILED},
		{"duplicate id", "data.json", `[{"exampleId": "q1", "instruction": "i", "input": ["x"]}, {"exampleId": "q1", "instruction": "i", "input": ["y"]}]`, types.DATASET_PARSE_FAILED},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			assert.True(t, types.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, types.HasCode(err, types.DATASET_READ_FAILED))
}

func TestInstance_Task(t *testing.T) {
	task := want[1].Task()
	assert.Equal(t, "Answer.", task.Instruction)
	assert.Equal(t, []string{"Capital of Peru?"}, task.Input)
	assert.Equal(t, []string{"South America"}, task.Context)
}
