package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/export"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ExportOptions struct {
	GlobalOptions
	Format     string
	OutputFile string
	Strategy   string
	WaveSize   int
	PilotSize  int
	Cohorts    CohortFlags
}

func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Format:        string(export.FormatXLSX),
		Strategy:      string(wave.StrategyByTenant),
	}
}

func NewCmdExport() *cobra.Command {
	o := DefaultExportOptions()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Plan cohorts and waves over a snapshot and write the plan as a workbook or csv.",
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

func (o *ExportOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	bindWaveFlags(fs, &o.Strategy, &o.WaveSize, &o.PilotSize)
	o.Cohorts.Bind(fs, "cohort-")

	fs.StringVar(&o.Format, "format", o.Format, "Export format. One of: (xlsx, csv).")
	fs.StringVar(&o.OutputFile, "out", o.OutputFile, "File to write. Defaults to plan.<format>.")
}

func (o *ExportOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := export.NewRenderer(export.Format(o.Format)); err != nil {
		return err
	}
	return nil
}

func (o *ExportOptions) Run(ctx context.Context, args []string) error {
	inv, cohorts, result, err := buildWaves(o.snapshot, o.config, o.Cohorts, o.Strategy, o.WaveSize, o.PilotSize)
	if err != nil {
		return err
	}

	data := &export.PlanData{
		ProjectID:       uuid.New(),
		ProjectName:     o.SnapshotFile,
		SnapshotVersion: 1,
		GeneratedAt:     time.Now(),
		Inventory:       inv,
		Cohorts:         cohorts,
		Waves:           result.Waves,
		Estimate:        estimator.New(o.config).EstimateProject(inv, cohorts),
		Funnel:          plan.ComputeFunnel(inv.InScopeVMs(), plan.FunnelFilter{}),
	}

	path := o.OutputFile
	if path == "" {
		path = "plan." + o.Format
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	renderer, _ := export.NewRenderer(export.Format(o.Format))
	if err := renderer.Render(f, data); err != nil {
		return fmt.Errorf("rendering plan: %w", err)
	}

	_, err = fmt.Fprintf(o.out, "plan written to %s (%d waves, %d cohorts)\n", path, len(result.Waves), len(cohorts))
	return err
}
