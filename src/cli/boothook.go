package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/filter"
	"cloud-init-strict/src/handlers/boothook"
	"cloud-init-strict/src/safety"
)

func newBoothookCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boothook",
		Short: "Work with #cloud-boothook user-data parts",
	}
	cmd.AddCommand(newBoothookRunCmd(stdout, stderr))
	return cmd
}

func newBoothookRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var instanceID string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Extract boothook parts from user-data and execute them",
		Long: "Reads raw user-data from the given file or stdin, extracts every " +
			"#cloud-boothook block, and runs each one from the instance boothooks " +
			"directory. With --dry-run the parts are listed but not executed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			opts := getSafetyOptions(cmd)

			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			parts := filter.Extract(data)
			if len(parts) == 0 {
				fmt.Fprintln(stdout, "no boothook parts found")
				return nil
			}

			h := boothook.New(env, instanceID)
			if !h.Enabled() {
				if !opts.Force {
					return errors.New("boothook handler is disabled in the system configuration (use --force to override)")
				}
				h.ForceEnable()
			}

			if opts.DryRun {
				fmt.Fprintf(stdout, "would run %d boothook part(s):\n", len(parts))
				for i, part := range parts {
					fmt.Fprintf(stdout, "  part %d (%d bytes)\n", i+1, len(part))
				}
				return nil
			}

			question := fmt.Sprintf("Run %d boothook part(s) from user-data?", len(parts))
			ok, err := safety.Confirm(opts, cmd.InOrStdin(), stdout, question)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "aborted")
				return nil
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			for i, part := range parts {
				path, err := h.HandlePart(ctx, fmt.Sprintf("part-%03d", i+1), part)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "ran %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instanceID, "instance-id", "", "Instance ID exported to boothook scripts as INSTANCE_ID")
	return cmd
}
