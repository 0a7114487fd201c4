package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/safety"
	"cloud-init-strict/src/sysconfig"
)

// addGlobalFlags adds persistent configuration and safety flags to the root
// command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", sysconfig.DefaultPath, "Path to the system configuration file")
	cmd.PersistentFlags().String("log-level", "warning", "Log level (debug, info, warning, error)")
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().Bool("force", false, "Force potentially dangerous operations")
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	force, _ := cmd.Root().PersistentFlags().GetBool("force")
	return safety.Options{DryRun: dry, Yes: yes, Force: force}
}

// loadEnvironment builds the runtime environment from --config. A missing
// file at the default location falls back to built-in defaults; a missing
// file the user named explicitly is an error.
func loadEnvironment(cmd *cobra.Command) (*sysconfig.Environment, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := sysconfig.Load(path)
	if err != nil {
		explicit := cmd.Root().PersistentFlags().Changed("config")
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return sysconfig.NewEnvironment(sysconfig.Default()), nil
		}
		return nil, err
	}
	return sysconfig.NewEnvironment(cfg), nil
}
