package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/backends"
	"cloud-init-strict/src/datasource"
	"cloud-init-strict/src/datasource/proxy"
)

func newDetectCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	var reportPath string
	var timeoutSecs int

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Probe configured datasources and report which one answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			if timeoutSecs > 0 {
				env.SysCfg.ProbeTimeoutSeconds = timeoutSecs
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p := proxy.New(env, backends.DefaultRegistry())
			ok, report := p.Detect(ctx)

			if reportPath != "" {
				if err := writeReportFile(reportPath, report); err != nil {
					return err
				}
			}

			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case "table", "":
				printReportTable(stdout, report)
			default:
				return fmt.Errorf("unsupported output format: %s", output)
			}

			if !ok {
				return errors.New("no functional datasource detected")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	cmd.Flags().StringVar(&reportPath, "report", "", "Also write the JSON detection report to this file")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Per-candidate probe timeout in seconds (overrides config)")
	return cmd
}

func printReportTable(out io.Writer, report *datasource.Report) {
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tDATASOURCE\tRESULT\tELAPSED")
	for _, p := range report.Probes {
		result := "ok"
		if !p.Success {
			result = string(p.Reason)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fms\n", p.Stage, p.Name, result, p.ElapsedMS)
	}
	w.Flush()
	if report.Selected != "" {
		fmt.Fprintf(out, "\nselected: %s (stage %s)\n", report.Selected, report.SelectedStage)
	} else {
		fmt.Fprintln(out, "\nselected: none")
	}
}

func writeReportFile(path string, report *datasource.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
