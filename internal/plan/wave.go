package plan

import (
	"time"

	"github.com/google/uuid"
)

type WaveState string

const (
	WavePlanned         WaveState = "planned"
	WavePreChecksPassed WaveState = "pre_checks_passed"
	WaveExecuting       WaveState = "executing"
	WaveValidating      WaveState = "validating"
	WaveComplete        WaveState = "complete"
	WaveFailed          WaveState = "failed"
	WaveCancelled       WaveState = "cancelled"
)

var waveTransitions = map[WaveState][]WaveState{
	WavePlanned:         {WavePreChecksPassed},
	WavePreChecksPassed: {WaveExecuting},
	WaveExecuting:       {WaveValidating},
	WaveValidating:      {WaveComplete},
}

func (s WaveState) Terminal() bool {
	return s == WaveComplete || s == WaveFailed || s == WaveCancelled
}

func (s WaveState) CanTransitionTo(next WaveState) bool {
	if s.Terminal() {
		return false
	}
	if next == WaveFailed || next == WaveCancelled {
		return true
	}
	for _, allowed := range waveTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type WaveVM struct {
	VMID  string `json:"vm_id"`
	Order int    `json:"order"`
}

// Wave is an ordered execution unit of VMs inside one cohort. An empty
// CohortID is the implicit whole-project cohort.
type Wave struct {
	ID          uuid.UUID  `json:"id"`
	CohortID    string     `json:"cohort_id,omitempty"`
	CohortOrder int        `json:"cohort_order"`
	Name        string     `json:"name"`
	Order       int        `json:"order"`
	State       WaveState  `json:"state"`
	VMs         []WaveVM   `json:"vms"`
	Strategy    string     `json:"strategy"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Version     int        `json:"version"`
}

// VMIDs returns the wave's VM ids in migration order.
func (w *Wave) VMIDs() []string {
	out := make([]string, 0, len(w.VMs))
	for _, vm := range w.VMs {
		out = append(out, vm.VMID)
	}
	return out
}

// TransitionGuard holds the facts the guarded wave transitions need.
type TransitionGuard struct {
	Preflight *PreflightReport
	Gate      CohortGate
}

// Transition applies next to the wave. Leaving planned needs a pre-flight
// report with no failing blocker; entering executing needs an open cohort gate.
func (w *Wave) Transition(next WaveState, guard TransitionGuard, now time.Time) error {
	current := w.State
	if current == "" {
		current = WavePlanned
	}
	if !current.CanTransitionTo(next) {
		return NewErrInvalidTransition("wave", string(current), string(next))
	}

	switch next {
	case WavePreChecksPassed:
		if guard.Preflight == nil {
			return NewErrPreflightMissing()
		}
		if failed := guard.Preflight.FailedBlockers(); len(failed) > 0 {
			return NewErrPreflightFailed(failed)
		}
	case WaveExecuting:
		if err := guard.Gate.Check(); err != nil {
			return err
		}
		if w.StartedAt == nil {
			started := now
			w.StartedAt = &started
		}
	case WaveComplete, WaveFailed:
		if w.CompletedAt == nil {
			completed := now
			w.CompletedAt = &completed
		}
	}

	w.State = next
	return nil
}

func (w *Wave) CanDelete() error {
	if w.State != WavePlanned && w.State != "" {
		return NewErrWaveNotDeletable(w.ID.String(), w.State)
	}
	return nil
}

// Locked returns the ids of VMs held by waves that already left planned and
// are not cancelled. Such VMs are never rebuilt into new waves.
func Locked(waves []Wave) map[string]bool {
	out := make(map[string]bool)
	for _, w := range waves {
		if w.State == WavePlanned || w.State == "" || w.State == WaveCancelled {
			continue
		}
		for _, vm := range w.VMs {
			out[vm.VMID] = true
		}
	}
	return out
}
