package main

import (
	"fmt"
	"os"

	"github.com/helmcode/desktop-doctor/cmd"
	"github.com/spf13/cobra"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "desktop-doctor",
		Short: "Diagnose Docker Desktop, WSL 2 and Airflow on a workstation",
		Long: `desktop-doctor probes the local machine for the usual reasons Docker Desktop
(and Airflow running next to it) will not start, and prints what to do about them.

Commands:
  diagnose   run every read-only check and classify the failures, plus any
             error messages passed as arguments, against known problems
  version    print the desktop-doctor version

Checks never change the machine. Findings do not affect the exit code; only
bad flags, bad config or a report that cannot be written fail the command.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		cmd.NewDiagnoseCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "desktop-doctor version %s\n", version)
		},
	}
}
