package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/logging"
)

// NewRootCmd returns the root cobra command for the cloud-init-strict CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cloud-init-strict",
		Short:         "Detect boot datasources and sanitize their user-data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			return logging.Setup(level, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newDetectCmd(stdout, stderr))
	cmd.AddCommand(newUserdataCmd(stdout, stderr))
	cmd.AddCommand(newFilterCmd(stdout, stderr))
	cmd.AddCommand(newCleanCmd(stdout, stderr))
	cmd.AddCommand(newBoothookCmd(stdout, stderr))
	cmd.AddCommand(newValidateCmd(stdout, stderr))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
