package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"cloud-init-strict/src/filter"
)

func newFilterCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [file]",
		Short: "Strip boothook blocks from a user-data payload",
		Long: "Reads user-data from the given file, or stdin when no file is " +
			"named, removes every #cloud-boothook block, and writes the rest to stdout.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, err = stdout.Write(filter.Boothooks(data))
			return err
		},
	}
}

// readInput returns the named file's contents, or everything on stdin when
// no argument was given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
