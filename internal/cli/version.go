package cli

import (
	"fmt"
	"io"

	"github.com/kubev2v/migration-wave-planner/pkg/version"
	"github.com/spf13/cobra"
)

func NewCmdVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print planner version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout())
		},
	}
	return cmd
}

func printVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Planner Version: %s\n", version.Get().String())
	return err
}
