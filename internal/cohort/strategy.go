package cohort

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyEasiestFirst  Strategy = "easiest_first"
	StrategyRiskiestLast  Strategy = "riskiest_last"
	StrategyPilotPlusBulk Strategy = "pilot_plus_bulk"
	StrategyBalancedLoad  Strategy = "balanced_load"
	StrategyOSFirst       Strategy = "os_first"
	StrategyByPriority    Strategy = "by_priority"
)

var strategies = []Strategy{
	StrategyEasiestFirst,
	StrategyRiskiestLast,
	StrategyPilotPlusBulk,
	StrategyBalancedLoad,
	StrategyOSFirst,
	StrategyByPriority,
}

// Strategies lists the accepted strategy names.
func Strategies() []string {
	out := make([]string, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, string(s))
	}
	return out
}

func ParseStrategy(name string) (Strategy, error) {
	for _, s := range strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", NewErrUnknownStrategy(name)
}

type ErrUnknownStrategy struct {
	error
}

func NewErrUnknownStrategy(name string) *ErrUnknownStrategy {
	return &ErrUnknownStrategy{fmt.Errorf("unknown cohort strategy %q, expected one of: %s", name, strings.Join(Strategies(), ", "))}
}

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(format string, args ...any) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf(format, args...)}
}
