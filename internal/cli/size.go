package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type SizeOptions struct {
	GlobalOptions
	CPUCores   int
	CPUThreads int
	MemoryGB   float64
}

func DefaultSizeOptions() *SizeOptions {
	return &SizeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdSize() *cobra.Command {
	o := DefaultSizeOptions()
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute the target worker nodes the in-scope VMs need.",
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

func (o *SizeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.IntVar(&o.CPUCores, "cpu-cores", o.CPUCores, "Physical cores of a worker node. The most common target node shape is used when 0.")
	fs.IntVar(&o.CPUThreads, "cpu-threads", o.CPUThreads, "Hardware threads of a worker node")
	fs.Float64Var(&o.MemoryGB, "memory-gb", o.MemoryGB, "Memory of a worker node in GB")
}

func (o *SizeOptions) Run(ctx context.Context, args []string) error {
	req := sizing.NewRequest(o.snapshot, o.config)
	if o.CPUCores > 0 || o.MemoryGB > 0 {
		req.Profile = &sizing.NodeProfile{
			Name:       "custom",
			CPUCores:   o.CPUCores,
			CPUThreads: o.CPUThreads,
			MemoryGB:   o.MemoryGB,
		}
	}

	result, err := sizing.Calculate(req)
	if err != nil {
		return err
	}
	if o.Output != tableFormat {
		return o.print(result)
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintf(w, "BASIS\t%s\n", result.Basis)
	fmt.Fprintf(w, "PERF COVERAGE\t%.1f%%\n", result.PerfCoveragePct)
	fmt.Fprintf(w, "NODE PROFILE\t%d cores, %.0f GB\n", result.Profile.CPUCores, result.Profile.MemoryGB)
	fmt.Fprintf(w, "DEMAND\t%.1f vCPU, %.1f GB\n", result.BufferedCPU, result.BufferedMemoryGB)
	fmt.Fprintf(w, "REQUIRED NODES\t%d\n", result.RequiredNodes)
	fmt.Fprintf(w, "ADDITIONAL NODES\t%d\n", result.AdditionalNodes)
	fmt.Fprintf(w, "LIMITED BY\t%s\n", result.LimitingDimension)
	return w.Flush()
}
