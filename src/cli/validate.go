package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/sysconfig"
)

func newValidateCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Schema-validate a system configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := sysconfig.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: OK\n", args[0])
			return nil
		},
	}
}
