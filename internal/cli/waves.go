package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type WavesOptions struct {
	GlobalOptions
	Strategy  string
	WaveSize  int
	PilotSize int
	// Cohorts are planned first when a cohort strategy is given; otherwise
	// the whole project is one implicit cohort.
	Cohorts CohortFlags
}

func DefaultWavesOptions() *WavesOptions {
	return &WavesOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Strategy:      string(wave.StrategyByTenant),
	}
}

func NewCmdWaves() *cobra.Command {
	o := DefaultWavesOptions()
	cmd := &cobra.Command{
		Use:   "waves",
		Short: "Build execution waves for every eligible VM.",
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

func (o *WavesOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	bindWaveFlags(fs, &o.Strategy, &o.WaveSize, &o.PilotSize)
	o.Cohorts.Bind(fs, "cohort-")
}

func bindWaveFlags(fs *pflag.FlagSet, strategy *string, size, pilot *int) {
	fs.StringVar(strategy, "strategy", *strategy, fmt.Sprintf("Wave strategy. One of: (%s).", strings.Join(wave.Strategies(), ", ")))
	fs.IntVar(size, "wave-size", *size, "Maximum VMs per wave. 0 uses the project configuration.")
	fs.IntVar(pilot, "pilot-size", *pilot, "VMs in the first wave (pilot_first)")
}

func (o *WavesOptions) Run(ctx context.Context, args []string) error {
	_, _, result, err := buildWaves(o.snapshot, o.config, o.Cohorts, o.Strategy, o.WaveSize, o.PilotSize)
	if err != nil {
		return err
	}
	if o.Output != tableFormat {
		return o.print(result)
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "ORDER\tNAME\tCOHORT\tVMS")
	for _, wv := range result.Waves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", wv.Order, wv.Name, wv.CohortID, strings.Join(wv.VMIDs(), ","))
	}
	for _, c := range result.Conflicts {
		fmt.Fprintf(w, "-\tconflict\t%s\t%s\n", c.Kind, c.Detail)
	}
	if len(result.Unwaved) > 0 {
		fmt.Fprintf(w, "-\tunwaved\t\t%s\n", strings.Join(result.Unwaved, ","))
	}
	return w.Flush()
}

// buildWaves plans cohorts when asked to and builds waves over the result. It
// returns the snapshot carrying the cohort assignment.
func buildWaves(s *inventory.Snapshot, cfg plan.ProjectConfig, cf CohortFlags, strategyName string, size, pilot int) (*inventory.Snapshot, []plan.Cohort, *wave.BuildResult, error) {
	strategy, err := wave.ParseStrategy(strategyName)
	if err != nil {
		return nil, nil, nil, err
	}

	inv := s
	var cohorts []plan.Cohort
	if cf.Strategy != "" {
		proposal, err := proposeCohorts(s, cfg, cf)
		if err != nil {
			return nil, nil, nil, err
		}
		inv, cohorts = applyProposal(s, proposal)
	}

	_, index, err := scores(inv, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if size == 0 {
		size = cfg.WaveSize
	}

	result, err := wave.Build(wave.BuildRequest{
		Snapshot:  inv,
		Cohorts:   cohorts,
		Strategy:  strategy,
		WaveSize:  size,
		PilotSize: pilot,
		Scores:    index,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return inv, cohorts, result, nil
}
