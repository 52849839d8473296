// Package dataset loads the task instances a batch run discusses.
//
// Three file layouts are understood, picked by extension:
//
//   - .json: an array of instances, or an object with an "instances" array
//   - .jsonl: one instance object per line
//   - .yaml / .yml: a list of instances, an object with an "instances"
//     list, or a single instance
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Instance is one task to discuss.
type Instance struct {
	ExampleID   string   `json:"exampleId" yaml:"exampleId"`
	DatasetID   string   `json:"datasetId" yaml:"datasetId"`
	Instruction string   `json:"instruction" yaml:"instruction"`
	Input       []string `json:"input" yaml:"input"`
	Context     []string `json:"context,omitempty" yaml:"context,omitempty"`
	References  []string `json:"references" yaml:"references"`
}

// Task returns the part of the instance participants see.
func (i Instance) Task() agent.Task {
	return agent.Task{Instruction: i.Instruction, Input: i.Input, Context: i.Context}
}

// Validate checks the fields every session needs.
func (i Instance) Validate() error {
	if strings.TrimSpace(i.ExampleID) == "" {
		return fmt.Errorf("exampleId is required")
	}
	if strings.TrimSpace(i.Instruction) == "" {
		return fmt.Errorf("instance %s: instruction is required", i.ExampleID)
	}
	if len(i.Input) == 0 {
		return fmt.Errorf("instance %s: input is required", i.ExampleID)
	}
	return nil
}

type wrapper struct {
	Instances []Instance `json:"instances" yaml:"instances"`
}

// Load reads every instance from path. Duplicate example ids are rejected
// because resumed runs key results by them.
func Load(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.DATASET_READ_FAILED, fmt.Sprintf("reading %s", path), err)
	}

	var instances []Instance
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		instances, err = parseJSON(data)
	case ".jsonl":
		instances, err = parseJSONL(data)
	case ".yaml", ".yml":
		instances, err = parseYAML(data)
	default:
		err = fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		return nil, types.WrapError(types.DATASET_PARSE_FAILED, fmt.Sprintf("parsing %s", path), err)
	}

	seen := make(map[string]bool, len(instances))
	for idx, inst := range instances {
		if err := inst.Validate(); err != nil {
			return nil, types.WrapError(types.DATASET_PARSE_FAILED, fmt.Sprintf("%s: instance %d", path, idx), err)
		}
		if seen[inst.ExampleID] {
			return nil, types.NewError(types.DATASET_PARSE_FAILED,
				fmt.Sprintf("%s: duplicate exampleId %q", path, inst.ExampleID))
		}
		seen[inst.ExampleID] = true
	}
	return instances, nil
}

func parseJSON(data []byte) ([]Instance, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w wrapper
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, err
		}
		return w.Instances, nil
	}

	var instances []Instance
	if err := json.Unmarshal(trimmed, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func parseJSONL(data []byte) ([]Instance, error) {
	var instances []Instance
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var inst Instance
		if err := json.Unmarshal(text, &inst); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		instances = append(instances, inst)
	}
	return instances, scanner.Err()
}

func parseYAML(data []byte) ([]Instance, error) {
	var w wrapper
	if err := yaml.Unmarshal(data, &w); err == nil && len(w.Instances) > 0 {
		return w.Instances, nil
	}

	var instances []Instance
	if err := yaml.Unmarshal(data, &instances); err == nil && len(instances) > 0 {
		return instances, nil
	}

	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, err
	}
	return []Instance{inst}, nil
}
