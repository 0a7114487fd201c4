package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cloud-init-strict/src/allowkeys"
	"cloud-init-strict/src/cloudconfig"
)

func newCleanCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file]",
		Short: "Sanitize a cloud-config document against the system policy",
		Long: "Decodes a cloud-config YAML document from the given file or stdin, " +
			"applies the allow-keys filter, the whitelist filter, and the standard " +
			"key validator from the system configuration, and emits the sanitized " +
			"document as YAML.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decode cloud-config: %w", err)
			}
			if doc == nil {
				doc = map[string]any{}
			}

			doc = allowkeys.New(env.SysCfg.Raw).Apply(doc)
			doc = cloudconfig.ApplyWhitelist(doc, env.SysCfg.Whitelist)
			doc = cloudconfig.ValidateStandardKeys(doc, env.SysCfg.Whitelist)

			out, err := yaml.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = stdout.Write(out)
			return err
		},
	}
}
