package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/backends"
	"cloud-init-strict/src/datasource/proxy"
)

func newUserdataCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "userdata",
		Short: "Fetch user-data through the filtering facade",
		Long: "Runs datasource detection, fetches the winning backend's user-data, " +
			"strips boothook blocks, and writes the result to stdout. Produces no " +
			"output when nothing is detected or the backend has no user-data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p := proxy.New(env, backends.DefaultRegistry())
			data, err := p.UserDataRaw(ctx)
			if err != nil {
				return err
			}
			if len(data) > 0 {
				if _, err := stdout.Write(data); err != nil {
					return err
				}
				if data[len(data)-1] != '\n' {
					io.WriteString(stdout, "\n")
				}
			}
			return nil
		},
	}
}
