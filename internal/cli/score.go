package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/spf13/cobra"
)

type ScoreOptions struct {
	GlobalOptions
}

func DefaultScoreOptions() *ScoreOptions {
	return &ScoreOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdScore() *cobra.Command {
	o := DefaultScoreOptions()
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the ease score of every in-scope tenant.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ScoreOptions) Run(ctx context.Context, args []string) error {
	breakdowns, _, err := scores(o.snapshot, o.config)
	if err != nil {
		return err
	}
	if o.Output != tableFormat {
		return o.print(breakdowns)
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "TENANT\tSCORE\tVMS\tRISK\tDEPENDENCIES")
	for _, b := range breakdowns {
		fmt.Fprintf(w, "%s\t%.1f\t%.0f\t%.1f\t%.0f\n", b.TenantID, b.Score,
			raw(b, scoring.DimensionVMCount),
			raw(b, scoring.DimensionRisk),
			raw(b, scoring.DimensionDependencies))
	}
	return w.Flush()
}

func raw(b scoring.Breakdown, d scoring.Dimension) float64 {
	for _, ds := range b.Dimensions {
		if ds.Dimension == d {
			return ds.Raw
		}
	}
	return 0
}
