// Package cohort groups in-scope tenants into ordered, guardrail-bounded
// cohorts. Assign and Rebalance only build proposals; tenant records are never
// touched, committing is up to the caller.
package cohort

import (
	"fmt"
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
)

const (
	DefaultCohortCount   = 3
	DefaultRiskThreshold = 70.0
	DefaultPilotSize     = 3
)

type Request struct {
	Snapshot *inventory.Snapshot
	// Scores maps tenant id to ease score. Missing tenants score the midpoint.
	Scores      map[string]float64
	Strategy    Strategy
	CohortCount int
	Guardrails  Guardrails
	// RiskThreshold is the average risk at which riskiest_last forces a tenant
	// into the final cohort.
	RiskThreshold float64
	PilotSize     int
	// Estimator is required for the bandwidth guardrail and fills the per
	// cohort duration figures when set.
	Estimator *estimator.Estimator
}

type CohortSummary struct {
	Order         int      `json:"order"`
	Name          string   `json:"name"`
	TenantIDs     []string `json:"tenant_ids"`
	VMCount       int      `json:"vm_count"`
	UsedDiskGB    float64  `json:"used_disk_gb"`
	AvgRisk       float64  `json:"avg_risk"`
	OSSupportRate float64  `json:"os_support_rate"`
	AvgEase       float64  `json:"avg_ease"`
	BandwidthDays float64  `json:"bandwidth_days,omitempty"`
	SlotDays      float64  `json:"slot_days,omitempty"`
}

// Unplaceable is a tenant no cohort could take without breaking a guardrail.
type Unplaceable struct {
	TenantID  string    `json:"tenant_id"`
	Guardrail Guardrail `json:"guardrail"`
	Detail    string    `json:"detail"`
}

type Proposal struct {
	Strategy Strategy        `json:"strategy"`
	Cohorts  []CohortSummary `json:"cohorts"`
	// Assignments maps tenant id to the 1-based order of its cohort.
	Assignments map[string]int `json:"assignments"`
	Unplaceable []Unplaceable  `json:"unplaceable"`
}

// CohortOf returns the cohort order a tenant was placed in, 0 if none.
func (p *Proposal) CohortOf(tenantID string) int {
	return p.Assignments[tenantID]
}

// member is one tenant with everything placement needs.
type member struct {
	tenant inventory.Tenant
	agg    inventory.TenantAggregates
	vms    []inventory.VM
	ease   float64
}

// Assign proposes cohorts for every in-scope tenant.
func Assign(req Request) (*Proposal, error) {
	req, err := withDefaults(req)
	if err != nil {
		return nil, err
	}

	members := collect(req)
	cohortCount := req.CohortCount
	if req.Strategy == StrategyPilotPlusBulk {
		cohortCount = 2
	}

	pl := newPlacement(cohortCount, req)
	switch req.Strategy {
	case StrategyEasiestFirst:
		pl.distribute(byEase(members))
	case StrategyByPriority:
		pl.distribute(byPriority(members))
	case StrategyOSFirst:
		pl.distribute(byOSFamily(members))
	case StrategyRiskiestLast:
		pl.riskiestLast(members)
	case StrategyPilotPlusBulk:
		pl.pilotPlusBulk(byEase(members))
	case StrategyBalancedLoad:
		pl.balance(members)
	}

	return pl.proposal(), nil
}

func withDefaults(req Request) (Request, error) {
	if req.Snapshot == nil {
		return req, NewErrInvalidRequest("snapshot is required")
	}
	if _, err := ParseStrategy(string(req.Strategy)); err != nil {
		return req, err
	}
	if req.CohortCount == 0 {
		req.CohortCount = DefaultCohortCount
	}
	if req.CohortCount < 0 {
		return req, NewErrInvalidRequest("cohort count must be positive, got %d", req.CohortCount)
	}
	if req.RiskThreshold == 0 {
		req.RiskThreshold = DefaultRiskThreshold
	}
	if req.PilotSize <= 0 {
		req.PilotSize = DefaultPilotSize
	}
	if req.Guardrails.MaxBandwidthDays != nil && req.Estimator == nil {
		return req, NewErrInvalidRequest("the %s guardrail needs an estimator", GuardrailMaxBandwidthDays)
	}
	return req, nil
}

func collect(req Request) []member {
	byTenant := req.Snapshot.VMsByTenant()
	aggs := req.Snapshot.Aggregates()
	tenants := req.Snapshot.InScopeTenants()

	out := make([]member, 0, len(tenants))
	for i, t := range tenants {
		ease, ok := req.Scores[t.ID]
		if !ok {
			ease = scoring.Midpoint
		}
		out = append(out, member{tenant: t, agg: aggs[i], vms: byTenant[t.ID], ease: ease})
	}
	return out
}

func byEase(members []member) []member {
	out := append([]member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ease != out[j].ease {
			return out[i].ease < out[j].ease
		}
		return out[i].tenant.ID < out[j].tenant.ID
	})
	return out
}

// byPriority ignores the ease score entirely.
func byPriority(members []member) []member {
	out := append([]member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].tenant.EffectivePriority(), out[j].tenant.EffectivePriority()
		if pi != pj {
			return pi < pj
		}
		return out[i].tenant.ID < out[j].tenant.ID
	})
	return out
}

// byOSFamily partitions by dominant OS family, best supported family first,
// and orders each partition by ease.
func byOSFamily(members []member) []member {
	type partition struct {
		family    string
		vms       int
		supported int
		members   []member
	}
	parts := make(map[string]*partition)
	for _, m := range members {
		p, ok := parts[m.agg.OSFamily]
		if !ok {
			p = &partition{family: m.agg.OSFamily}
			parts[m.agg.OSFamily] = p
		}
		p.vms += m.agg.VMCount
		p.supported += m.agg.SupportedVMs
		p.members = append(p.members, m)
	}

	rate := func(p *partition) float64 {
		if p.vms == 0 {
			return 1
		}
		return float64(p.supported) / float64(p.vms)
	}
	ordered := make([]*partition, 0, len(parts))
	for _, p := range parts {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := rate(ordered[i]), rate(ordered[j])
		if ri != rj {
			return ri > rj
		}
		return ordered[i].family < ordered[j].family
	})

	out := make([]member, 0, len(members))
	for _, p := range ordered {
		out = append(out, byEase(p.members)...)
	}
	return out
}

type placement struct {
	req         Request
	cohorts     []load
	assigned    map[string]int
	unplaceable []Unplaceable
}

func newPlacement(count int, req Request) *placement {
	return &placement{
		req:      req,
		cohorts:  make([]load, count),
		assigned: make(map[string]int),
	}
}

// place puts m in the first cohort at or after natural that keeps every
// guardrail and returns its index, or -1 when m is unplaceable. Displacement
// only moves forward.
func (p *placement) place(m member, natural int) int {
	var last *violation
	for i := natural; i < len(p.cohorts); i++ {
		candidate := p.cohorts[i].with(m)
		if v := p.req.Guardrails.check(candidate, p.req.Estimator); v != nil {
			last = v
			continue
		}
		p.cohorts[i] = candidate
		p.assigned[m.tenant.ID] = i
		return i
	}
	p.reject(m, last)
	return -1
}

func (p *placement) reject(m member, v *violation) {
	u := Unplaceable{TenantID: m.tenant.ID}
	if v != nil {
		u.Guardrail = v.guardrail
		u.Detail = v.detail
	}
	p.unplaceable = append(p.unplaceable, u)
}

// distribute fills the cohorts in order with the ordered members.
func (p *placement) distribute(ordered []member) {
	p.distributeOver(ordered, len(p.cohorts))
}

// distributeOver fills the first cohorts in order, each taking its even share
// of the members before the cursor moves on. When that leaves a tenant
// unplaceable, filling purely up to guardrail capacity is tried too and the
// run placing more tenants wins.
func (p *placement) distributeOver(ordered []member, cohorts int) {
	if len(ordered) == 0 || cohorts <= 0 {
		return
	}
	share := (len(ordered) + cohorts - 1) / cohorts

	even := p.clone()
	even.fill(ordered, cohorts, share)
	if len(even.unplaceable) == len(p.unplaceable) {
		*p = *even
		return
	}

	packed := p.clone()
	packed.fill(ordered, cohorts, 0)
	if len(packed.unplaceable) < len(even.unplaceable) {
		*p = *packed
		return
	}
	*p = *even
}

// fill places members from a cursor that only moves forward: past a cohort
// already holding share tenants (0 means no share) or to the cohort a
// guardrail displaced the previous tenant into.
func (p *placement) fill(ordered []member, cohorts, share int) {
	cursor := 0
	for _, m := range ordered {
		for share > 0 && cursor < cohorts-1 && len(p.cohorts[cursor].tenants) >= share {
			cursor++
		}
		if i := p.place(m, cursor); i >= 0 {
			cursor = i
		}
	}
}

func (p *placement) clone() *placement {
	out := &placement{
		req:         p.req,
		cohorts:     append([]load(nil), p.cohorts...),
		assigned:    make(map[string]int, len(p.assigned)),
		unplaceable: append([]Unplaceable(nil), p.unplaceable...),
	}
	for id, i := range p.assigned {
		out.assigned[id] = i
	}
	return out
}

func (p *placement) riskiestLast(members []member) {
	var risky, rest []member
	for _, m := range byEase(members) {
		if m.agg.AvgRisk >= p.req.RiskThreshold {
			risky = append(risky, m)
		} else {
			rest = append(rest, m)
		}
	}
	if len(risky) == 0 && len(rest) > 0 {
		idx := 0
		for i, m := range rest {
			top := rest[idx]
			if m.agg.AvgRisk > top.agg.AvgRisk || (m.agg.AvgRisk == top.agg.AvgRisk && m.tenant.ID < top.tenant.ID) {
				idx = i
			}
		}
		risky = append(risky, rest[idx])
		rest = append(rest[:idx:idx], rest[idx+1:]...)
	}

	last := len(p.cohorts) - 1
	if last == 0 {
		p.distribute(append(rest, risky...))
		return
	}
	p.distributeOver(rest, last)
	for _, m := range risky {
		p.place(m, last)
	}
}

func (p *placement) pilotPlusBulk(ordered []member) {
	for i, m := range ordered {
		natural := 1
		if i < p.req.PilotSize {
			natural = 0
		}
		p.place(m, natural)
	}
}

// balance assigns the largest tenants first, each to the least loaded cohort
// that keeps every guardrail, then orders the cohorts by average ease.
func (p *placement) balance(members []member) {
	ordered := append([]member(nil), members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].agg.TotalUsedDiskGB != ordered[j].agg.TotalUsedDiskGB {
			return ordered[i].agg.TotalUsedDiskGB > ordered[j].agg.TotalUsedDiskGB
		}
		return ordered[i].tenant.ID < ordered[j].tenant.ID
	})

	for _, m := range ordered {
		best := -1
		var last *violation
		for i := range p.cohorts {
			candidate := p.cohorts[i].with(m)
			if v := p.req.Guardrails.check(candidate, p.req.Estimator); v != nil {
				last = v
				continue
			}
			if best < 0 || p.cohorts[i].diskGB < p.cohorts[best].diskGB {
				best = i
			}
		}
		if best < 0 {
			p.reject(m, last)
			continue
		}
		p.cohorts[best] = p.cohorts[best].with(m)
		p.assigned[m.tenant.ID] = best
	}

	idx := make([]int, len(p.cohorts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := p.cohorts[idx[a]], p.cohorts[idx[b]]
		if (len(ca.tenants) == 0) != (len(cb.tenants) == 0) {
			return len(cb.tenants) == 0
		}
		return ca.avgEase() < cb.avgEase()
	})
	p.reorder(idx)
}

// reorder makes cohort idx[i] the i-th cohort.
func (p *placement) reorder(idx []int) {
	position := make(map[int]int, len(idx))
	cohorts := make([]load, len(idx))
	for to, from := range idx {
		position[from] = to
		cohorts[to] = p.cohorts[from]
	}
	p.cohorts = cohorts
	for id, from := range p.assigned {
		p.assigned[id] = position[from]
	}
}

// proposal drops empty cohorts and numbers the rest from 1.
func (p *placement) proposal() *Proposal {
	out := &Proposal{
		Strategy:    p.req.Strategy,
		Cohorts:     []CohortSummary{},
		Assignments: make(map[string]int, len(p.assigned)),
		Unplaceable: p.unplaceable,
	}
	if out.Unplaceable == nil {
		out.Unplaceable = []Unplaceable{}
	}

	orders := make(map[int]int, len(p.cohorts))
	for i, l := range p.cohorts {
		if len(l.tenants) == 0 {
			continue
		}
		order := len(out.Cohorts) + 1
		orders[i] = order
		out.Cohorts = append(out.Cohorts, summarize(order, l, p.req.Estimator))
	}
	for id, i := range p.assigned {
		out.Assignments[id] = orders[i]
	}
	return out
}

func summarize(order int, l load, est *estimator.Estimator) CohortSummary {
	s := CohortSummary{
		Order:         order,
		Name:          fmt.Sprintf("Cohort %d", order),
		TenantIDs:     make([]string, 0, len(l.tenants)),
		VMCount:       l.vmCount,
		UsedDiskGB:    l.diskGB,
		AvgRisk:       l.avgRisk(),
		OSSupportRate: l.osSupportRate(),
		AvgEase:       l.avgEase(),
	}
	for _, t := range l.tenants {
		s.TenantIDs = append(s.TenantIDs, t.ID)
	}
	sort.Strings(s.TenantIDs)
	if est != nil {
		g := est.EstimateGroup("", order, l.tenants, l.vms)
		s.BandwidthDays = g.Bandwidth.Days
		s.SlotDays = g.Slot.Days
	}
	return s
}
