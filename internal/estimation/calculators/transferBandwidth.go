package calculators

import (
	"fmt"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/estimation"
)

const (
	// ParamUsedDiskGB is the estimation.Param key for the used disk to copy, in gigabytes.
	ParamUsedDiskGB = "used_disk_gb"
	// ParamLinkBandwidthMbps is the nominal source to target link bandwidth in megabits per second.
	ParamLinkBandwidthMbps = "link_bandwidth_mbps"
	// ParamEfficiencyFactor is the share of the nominal link a copy actually achieves.
	ParamEfficiencyFactor = "efficiency_factor"
	// ParamOverheadFactor inflates the transfer time for protocol and retry cost.
	ParamOverheadFactor = "overhead_factor"

	DefaultEfficiencyFactor = 0.75
	DefaultOverheadFactor   = 1.14

	// megabitsPerGB converts binary gigabytes to megabits (1024 MB x 8 bits).
	megabitsPerGB = 8192.0
)

// Compile-time assertion that TransferBandwidth implements the Calculator interface.
var _ estimation.Calculator = (*TransferBandwidth)(nil)

// TransferBandwidth estimates the time needed to push used disk over the migration link.
//
//	transfer_hours = (used_disk_GB * 8192) / (bandwidth_Mbps * efficiency * 3600) * overhead
type TransferBandwidth struct {
	efficiencyFactor float64
	overheadFactor   float64
}

// TransferBandwidthOption is a functional option for configuring a TransferBandwidth calculator.
type TransferBandwidthOption func(*TransferBandwidth)

// WithEfficiencyFactor sets the default efficiency. Values outside (0, 1] are ignored.
func WithEfficiencyFactor(factor float64) TransferBandwidthOption {
	return func(t *TransferBandwidth) {
		if factor > 0 && factor <= 1 {
			t.efficiencyFactor = factor
		}
	}
}

// WithOverheadFactor sets the default overhead. Values below 1 are ignored.
func WithOverheadFactor(factor float64) TransferBandwidthOption {
	return func(t *TransferBandwidth) {
		if factor >= 1 {
			t.overheadFactor = factor
		}
	}
}

func NewTransferBandwidth(opts ...TransferBandwidthOption) *TransferBandwidth {
	res := TransferBandwidth{
		efficiencyFactor: DefaultEfficiencyFactor,
		overheadFactor:   DefaultOverheadFactor,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return &res
}

func (c *TransferBandwidth) Name() string {
	return "Transfer Bandwidth"
}

func (c *TransferBandwidth) Keys() []string {
	return []string{ParamUsedDiskGB, ParamLinkBandwidthMbps}
}

// Calculate requires ParamUsedDiskGB and ParamLinkBandwidthMbps. Efficiency and
// overhead params override the calculator defaults when present.
func (c *TransferBandwidth) Calculate(params map[string]estimation.Param) (estimation.Estimation, error) {
	usedGB, err := requireFloat(params, ParamUsedDiskGB)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if usedGB < 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be non-negative", ParamUsedDiskGB)
	}

	bandwidth, err := requireFloat(params, ParamLinkBandwidthMbps)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if bandwidth <= 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be > 0", ParamLinkBandwidthMbps)
	}

	efficiency, err := optionalFloat(params, ParamEfficiencyFactor, c.efficiencyFactor)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if efficiency <= 0 || efficiency > 1 {
		return estimation.Estimation{}, fmt.Errorf("%s must be in (0, 1]", ParamEfficiencyFactor)
	}

	overhead, err := optionalFloat(params, ParamOverheadFactor, c.overheadFactor)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if overhead < 1 {
		return estimation.Estimation{}, fmt.Errorf("%s must be >= 1", ParamOverheadFactor)
	}

	hours := TransferHours(usedGB, bandwidth, efficiency, overhead)

	return estimation.Estimation{
		Duration: time.Duration(hours * float64(time.Hour)),
		Reason: fmt.Sprintf("%.2f GB over %.0f Mbps at %.0f%% efficiency, x%.2f overhead",
			usedGB, bandwidth, efficiency*100, overhead),
	}, nil
}

// TransferHours is the bare transfer formula, shared with per-VM estimates.
func TransferHours(usedGB, bandwidthMbps, efficiency, overhead float64) float64 {
	if usedGB <= 0 || bandwidthMbps <= 0 || efficiency <= 0 {
		return 0
	}
	return usedGB * megabitsPerGB / (bandwidthMbps * efficiency * 3600) * overhead
}
