package main

import (
	"os"

	"github.com/kubev2v/migration-wave-planner/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewPlannerCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewPlannerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planner [flags] [options]",
		Short: "planner plans migration cohorts and waves over an inventory snapshot.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdScore())
	cmd.AddCommand(cli.NewCmdCohorts())
	cmd.AddCommand(cli.NewCmdWaves())
	cmd.AddCommand(cli.NewCmdEstimate())
	cmd.AddCommand(cli.NewCmdSize())
	cmd.AddCommand(cli.NewCmdExport())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
