package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitTimeout       = 3
	ExitCancelled     = 4
	ExitConfigError   = 10
	ExitDatasetError  = 11
	ExitDatabaseError = 12
)

// HandleError prints err and maps it to an exit code.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	cmd.PrintErrln("Error:", err)

	code := string(types.CodeOf(err))
	switch {
	case strings.HasPrefix(code, "CONFIG_"):
		return ExitConfigError
	case strings.HasPrefix(code, "DATASET_"):
		return ExitDatasetError
	case strings.HasPrefix(code, "DB_"):
		return ExitDatabaseError
	default:
		return ExitError
	}
}
