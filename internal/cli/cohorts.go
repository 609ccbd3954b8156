package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type CohortsOptions struct {
	GlobalOptions
	Cohorts CohortFlags
}

func DefaultCohortsOptions() *CohortsOptions {
	return &CohortsOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Cohorts:       CohortFlags{Strategy: string(cohort.StrategyEasiestFirst)},
	}
}

func NewCmdCohorts() *cobra.Command {
	o := DefaultCohortsOptions()
	cmd := &cobra.Command{
		Use:   "cohorts",
		Short: "Propose a cohort assignment for the in-scope tenants.",
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

func (o *CohortsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.Cohorts.Bind(fs, "")
}

func (o *CohortsOptions) Run(ctx context.Context, args []string) error {
	proposal, err := proposeCohorts(o.snapshot, o.config, o.Cohorts)
	if err != nil {
		return err
	}
	if o.Output != tableFormat {
		return o.print(proposal)
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "ORDER\tNAME\tTENANTS\tVMS\tDISK (GB)\tAVG RISK\tAVG EASE")
	for _, c := range proposal.Cohorts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.0f\t%.1f\t%.1f\n",
			c.Order, c.Name, strings.Join(c.TenantIDs, ","), c.VMCount, c.UsedDiskGB, c.AvgRisk, c.AvgEase)
	}
	for _, u := range proposal.Unplaceable {
		fmt.Fprintf(w, "-\tunplaceable\t%s\t\t\t\t%s: %s\n", u.TenantID, u.Guardrail, u.Detail)
	}
	return w.Flush()
}
