// Command mallm runs multi-agent discussions over a dataset of tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			os.Exit(ExitError)
		}
	}()

	root := newRootCmd()
	if err := Execute(context.Background(), root); err != nil {
		os.Exit(HandleError(root, err))
	}
	os.Exit(ExitSuccess)
}
