package main

import (
	"fmt"
	"os"

	"gl-bank-reconciler/cmd/reconciler/cmd"
	"gl-bank-reconciler/pkg/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
			if suggestion := reconcilerErr.Suggestion; suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
			}
			os.Exit(reconcilerErr.GetExitCode())
		}
		os.Exit(1)
	}
}
