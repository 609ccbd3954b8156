package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type EstimateOptions struct {
	GlobalOptions
	Cohorts CohortFlags
}

func DefaultEstimateOptions() *EstimateOptions {
	return &EstimateOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdEstimate() *cobra.Command {
	o := DefaultEstimateOptions()
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate migration duration with the bandwidth and slot models.",
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

func (o *EstimateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.Cohorts.Bind(fs, "cohort-")
}

func (o *EstimateOptions) Run(ctx context.Context, args []string) error {
	inv := o.snapshot
	var cohorts []plan.Cohort
	if o.Cohorts.Strategy != "" {
		proposal, err := proposeCohorts(o.snapshot, o.config, o.Cohorts)
		if err != nil {
			return err
		}
		inv, cohorts = applyProposal(o.snapshot, proposal)
	}

	estimate := estimator.New(o.config).EstimateProject(inv, cohorts)
	if o.Output != tableFormat {
		return o.print(estimate)
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "COHORT\tVMS\tDISK (GB)\tBANDWIDTH DAYS\tSLOT DAYS\tFITS")
	for _, g := range estimate.Groups {
		name := g.CohortID
		if name == "" {
			name = "unassigned"
		}
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%.2f\t%.2f\t%t\n", name, g.VMCount, g.UsedDiskGB,
			g.Bandwidth.Days, g.Slot.Days, g.BandwidthFits && g.SlotFits)
	}
	fmt.Fprintf(w, "total\t\t\t%.2f\t%.2f\t%t\n", estimate.Totals.BandwidthDays, estimate.Totals.SlotDays,
		estimate.Totals.BandwidthFits && estimate.Totals.SlotFits)
	if estimate.Totals.ModelsDisagree {
		fmt.Fprintln(w, "warning\tthe bandwidth and slot models disagree on the deadline")
	}
	return w.Flush()
}
