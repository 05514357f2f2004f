package lineup

import (
	"fmt"
	"sort"
)

// Infeasibility constraint families surfaced to callers.
const (
	InfeasibleSlotCoverage = "slot_coverage"
	InfeasibleSalaryCap    = "salary_cap"
	InfeasibleLocks        = "locks"
)

// InfeasibleError reports that no roster can satisfy the constraints, and
// which constraint family made the problem unsolvable to the extent
// determinable. Distinct from a ValidationResult: no candidate roster was
// even proposed.
type InfeasibleError struct {
	Constraint string
	Detail     string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible roster: %s (%s)", e.Detail, e.Constraint)
}

// Constraints are the optional optimizer inputs beyond the format rules.
type Constraints struct {
	Locked   []string // player ids that must appear in the result
	Excluded []string // player ids that must never appear
}

// Optimize fills every required slot with the candidate set that maximizes
// total projected points, subject to the same rules Validate enforces plus
// the lock/exclude lists. The search is an exact depth-first
// branch-and-bound: candidate pools here are tens of players and slot
// counts single digits, so exhaustive search with pruning is tractable and
// avoids the soundness questions of a heuristic.
//
// Tie-break between rosters with equal projected points: lower total cost,
// then lower aggregate ownership. The ordering is deterministic.
func Optimize(candidates []Player, reqs []SlotRequirement, rules Rules, cons Constraints) (Roster, error) {
	pool, err := buildPool(candidates, rules, cons)
	if err != nil {
		return Roster{}, err
	}

	units := expandSlots(reqs)
	if len(units) == 0 {
		return Roster{}, &InfeasibleError{
			Constraint: InfeasibleSlotCoverage,
			Detail:     "format defines no roster slots",
		}
	}

	if err := precheck(pool, units, rules, cons); err != nil {
		return Roster{}, err
	}

	best := search(pool, units, rules, cons)
	if best == nil {
		return Roster{}, &InfeasibleError{
			Constraint: diagnoseFailure(pool, units, rules, cons),
			Detail:     "no assignment satisfies all constraints",
		}
	}

	roster := Roster{Assignments: make([]Assignment, len(units))}
	for i, u := range units {
		roster.Assignments[i] = Assignment{Slot: u.slot, Player: pool[best.chosen[i]]}
	}
	return roster, nil
}

// slotUnit is one seat to fill: a slot name expanded per its cardinality.
type slotUnit struct {
	slot     string
	eligible map[Position]bool
	// per-unit bounds over eligible candidates, for pruning
	maxPoints float64
	minCost   int64
}

func buildPool(candidates []Player, rules Rules, cons Constraints) ([]Player, error) {
	excluded := make(map[string]bool, len(cons.Excluded))
	for _, id := range cons.Excluded {
		excluded[id] = true
	}
	locked := make(map[string]bool, len(cons.Locked))
	for _, id := range cons.Locked {
		locked[id] = true
	}

	pool := make([]Player, 0, len(candidates))
	for _, p := range candidates {
		if excluded[p.ID] {
			if locked[p.ID] {
				return nil, &InfeasibleError{
					Constraint: InfeasibleLocks,
					Detail:     fmt.Sprintf("player %s is both locked and excluded", p.ID),
				}
			}
			continue
		}
		// Players over the ownership ceiling can never appear in a valid
		// roster, so they never enter the search.
		if rules.MaxOwnership > 0 && p.OwnershipPercent > rules.MaxOwnership {
			if locked[p.ID] {
				return nil, &InfeasibleError{
					Constraint: InfeasibleLocks,
					Detail:     fmt.Sprintf("locked player %s exceeds the ownership limit", p.ID),
				}
			}
			continue
		}
		pool = append(pool, p)
	}

	inPool := make(map[string]bool, len(pool))
	for _, p := range pool {
		inPool[p.ID] = true
	}
	for _, id := range cons.Locked {
		if !inPool[id] {
			return nil, &InfeasibleError{
				Constraint: InfeasibleLocks,
				Detail:     fmt.Sprintf("locked player %s is not in the candidate pool", id),
			}
		}
	}

	// Deterministic search order: best points first, cheaper and less owned
	// players ahead on ties, id as the final arbiter.
	sort.Slice(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.ProjectedPoints != b.ProjectedPoints {
			return a.ProjectedPoints > b.ProjectedPoints
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.OwnershipPercent != b.OwnershipPercent {
			return a.OwnershipPercent < b.OwnershipPercent
		}
		return a.ID < b.ID
	})

	return pool, nil
}

func expandSlots(reqs []SlotRequirement) []slotUnit {
	var units []slotUnit
	for _, req := range reqs {
		set := req.eligibleSet()
		for i := 0; i < req.Count; i++ {
			units = append(units, slotUnit{slot: req.Slot, eligible: set})
		}
	}
	return units
}

// precheck catches infeasibility that is cheap to name precisely before the
// search runs: empty slots and a salary floor above the cap.
func precheck(pool []Player, units []slotUnit, rules Rules, cons Constraints) error {
	if len(pool) < len(units) {
		return &InfeasibleError{
			Constraint: InfeasibleSlotCoverage,
			Detail: fmt.Sprintf("%d roster slots but only %d usable candidates",
				len(units), len(pool)),
		}
	}

	var minTotal int64
	for i := range units {
		u := &units[i]
		u.minCost = -1
		for _, p := range pool {
			if !u.eligible[p.Position] {
				continue
			}
			if p.ProjectedPoints > u.maxPoints {
				u.maxPoints = p.ProjectedPoints
			}
			if u.minCost < 0 || p.Cost < u.minCost {
				u.minCost = p.Cost
			}
		}
		if u.minCost < 0 {
			return &InfeasibleError{
				Constraint: InfeasibleSlotCoverage,
				Detail:     fmt.Sprintf("no eligible candidate for slot %s", u.slot),
			}
		}
		minTotal += u.minCost
	}

	// Lower bound allows reusing the cheapest player across slots, so a
	// floor above the cap is a sound infeasibility proof.
	if rules.SalaryCap > 0 && minTotal > rules.SalaryCap {
		return &InfeasibleError{
			Constraint: InfeasibleSalaryCap,
			Detail: fmt.Sprintf("cheapest possible roster costs at least %d, cap is %d",
				minTotal, rules.SalaryCap),
		}
	}

	if len(cons.Locked) > len(units) {
		return &InfeasibleError{
			Constraint: InfeasibleLocks,
			Detail: fmt.Sprintf("%d locked players but only %d roster slots",
				len(cons.Locked), len(units)),
		}
	}

	return nil
}

type solution struct {
	chosen    []int // pool index per unit
	points    float64
	cost      int64
	ownership float64
}

// betterThan applies the documented ordering: higher points, then lower
// cost, then lower aggregate ownership.
func (s *solution) betterThan(other *solution) bool {
	if other == nil {
		return true
	}
	if s.points != other.points {
		return s.points > other.points
	}
	if s.cost != other.cost {
		return s.cost < other.cost
	}
	return s.ownership < other.ownership
}

func search(pool []Player, units []slotUnit, rules Rules, cons Constraints) *solution {
	// Most constrained slot first keeps the tree narrow.
	order := make([]int, len(units))
	for i := range order {
		order[i] = i
	}
	eligCount := make([]int, len(units))
	for i, u := range units {
		for _, p := range pool {
			if u.eligible[p.Position] {
				eligCount[i]++
			}
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return eligCount[order[a]] < eligCount[order[b]]
	})

	// Suffix bounds in visit order for pruning.
	suffixMaxPoints := make([]float64, len(units)+1)
	suffixMinCost := make([]int64, len(units)+1)
	for i := len(units) - 1; i >= 0; i-- {
		u := units[order[i]]
		suffixMaxPoints[i] = suffixMaxPoints[i+1] + u.maxPoints
		suffixMinCost[i] = suffixMinCost[i+1] + u.minCost
	}

	locked := make(map[string]bool, len(cons.Locked))
	for _, id := range cons.Locked {
		locked[id] = true
	}

	var best *solution
	used := make([]bool, len(pool))
	chosen := make([]int, len(units))
	teamCounts := make(map[string]int)

	var visit func(depth int, points float64, cost int64, ownership float64, lockedLeft int)
	visit = func(depth int, points float64, cost int64, ownership float64, lockedLeft int) {
		if depth == len(units) {
			if lockedLeft > 0 {
				return
			}
			cand := &solution{
				chosen:    append([]int(nil), chosen...),
				points:    points,
				cost:      cost,
				ownership: ownership,
			}
			if cand.betterThan(best) {
				best = cand
			}
			return
		}

		remaining := len(units) - depth
		if lockedLeft > remaining {
			return
		}
		if rules.SalaryCap > 0 && cost+suffixMinCost[depth] > rules.SalaryCap {
			return
		}
		// Strict comparison: equal-bound branches may still win a tie-break.
		if best != nil && points+suffixMaxPoints[depth] < best.points {
			return
		}

		u := units[order[depth]]
		for idx, p := range pool {
			if used[idx] || !u.eligible[p.Position] {
				continue
			}
			if rules.MaxPerTeam > 0 && teamCounts[p.Team] >= rules.MaxPerTeam {
				continue
			}
			if rules.SalaryCap > 0 && cost+p.Cost+suffixMinCost[depth+1] > rules.SalaryCap {
				continue
			}

			used[idx] = true
			chosen[order[depth]] = idx
			teamCounts[p.Team]++
			nextLocked := lockedLeft
			if locked[p.ID] {
				nextLocked--
			}

			visit(depth+1, points+p.ProjectedPoints, cost+p.Cost,
				ownership+p.OwnershipPercent, nextLocked)

			teamCounts[p.Team]--
			used[idx] = false
		}
	}

	visit(0, 0, 0, 0, len(cons.Locked))
	return best
}

// diagnoseFailure names the constraint family that made the search fail,
// by relaxing constraints one at a time and re-searching. Pools are small
// enough that the extra searches are cheap.
func diagnoseFailure(pool []Player, units []slotUnit, rules Rules, cons Constraints) string {
	if len(cons.Locked) > 0 {
		if search(pool, units, rules, Constraints{Excluded: cons.Excluded}) != nil {
			return InfeasibleLocks
		}
	}
	if rules.SalaryCap > 0 {
		relaxed := rules
		relaxed.SalaryCap = 0
		if search(pool, units, relaxed, cons) != nil {
			return InfeasibleSalaryCap
		}
	}
	return InfeasibleSlotCoverage
}
