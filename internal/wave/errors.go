package wave

import (
	"fmt"
	"strings"
)

type ErrDependencyCycle struct {
	error
	Cycle []string
}

func NewErrDependencyCycle(cycle []string) *ErrDependencyCycle {
	return &ErrDependencyCycle{
		error: fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> ")),
		Cycle: cycle,
	}
}

type ErrUnknownStrategy struct {
	error
}

func NewErrUnknownStrategy(name string) *ErrUnknownStrategy {
	return &ErrUnknownStrategy{fmt.Errorf("unknown wave strategy %q, expected one of: %s", name, strings.Join(Strategies(), ", "))}
}

type ErrUnresolvedConflicts struct {
	error
	Conflicts []Conflict
}

func NewErrUnresolvedConflicts(conflicts []Conflict) *ErrUnresolvedConflicts {
	return &ErrUnresolvedConflicts{
		error:     fmt.Errorf("%d unresolved dependency conflict(s); reorder waves or accept them explicitly", len(conflicts)),
		Conflicts: conflicts,
	}
}

type ErrOutOfScope struct {
	error
}

func NewErrOutOfScope(vmID, tenantID string) *ErrOutOfScope {
	return &ErrOutOfScope{fmt.Errorf("vm %q belongs to tenant %q which is not in scope", vmID, tenantID)}
}

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(format string, args ...any) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf(format, args...)}
}
