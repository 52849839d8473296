package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/agent"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/decision"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/discourse"
	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/persona"
)

// componentGroup is one registry as shown by "mallm list".
type componentGroup struct {
	Title  string   `json:"title"`
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

func registeredComponents() []componentGroup {
	return []componentGroup{
		{"Discourse paradigms", "discussion.paradigm", discourse.Paradigms.Names()},
		{"Decision protocols", "discussion.decision_protocol", decision.Protocols.Names()},
		{"Response generators", "discussion.response_generator", agent.Generators.Names()},
		{"Persona generators", "discussion.persona_generator", persona.Generators.Names()},
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered paradigms, protocols and generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := registeredComponents()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := json.MarshalIndent(groups, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderComponents(groups))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}
