package lineup

import "fmt"

// Violation rule identifiers. Callers match on these instead of parsing
// messages.
const (
	RuleSlotCount   = "slot_count"
	RuleUnknownSlot = "unknown_slot"
	RuleDuplicate   = "duplicate_player"
	RuleEligibility = "position_eligibility"
	RuleSalaryCap   = "salary_cap"
	RuleOwnership   = "ownership_limit"
	RuleTeamStack   = "team_stack_limit"
)

type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validate checks a candidate roster against the format's structural and
// quantitative constraints. With collectAll false it stops at the first
// violated rule family; with collectAll true it reports every violation so
// a UI can highlight each offending slot, player, or limit. An empty roster
// is always invalid: its slot cardinality is unmet.
func Validate(roster Roster, reqs []SlotRequirement, rules Rules, collectAll bool) ValidationResult {
	var violations []Violation

	record := func(vs ...Violation) bool {
		violations = append(violations, vs...)
		return !collectAll && len(violations) > 0
	}

	if record(checkSlotCounts(roster, reqs)...) {
		return invalid(violations)
	}
	if record(checkUniqueness(roster)...) {
		return invalid(violations)
	}
	if record(checkEligibility(roster, reqs)...) {
		return invalid(violations)
	}
	if record(checkSalaryCap(roster, rules)...) {
		return invalid(violations)
	}
	if record(checkOwnership(roster, rules)...) {
		return invalid(violations)
	}
	if record(checkTeamStacks(roster, rules)...) {
		return invalid(violations)
	}

	if len(violations) > 0 {
		return invalid(violations)
	}
	return ValidationResult{Valid: true}
}

func invalid(violations []Violation) ValidationResult {
	return ValidationResult{Valid: false, Violations: violations}
}

func checkSlotCounts(roster Roster, reqs []SlotRequirement) []Violation {
	var out []Violation

	known := make(map[string]int, len(reqs))
	filled := make(map[string]int)
	for _, req := range reqs {
		known[req.Slot] = req.Count
	}
	for _, a := range roster.Assignments {
		if _, ok := known[a.Slot]; !ok {
			out = append(out, Violation{
				Rule:   RuleUnknownSlot,
				Detail: fmt.Sprintf("slot %s is not part of this format", a.Slot),
			})
			continue
		}
		filled[a.Slot]++
	}

	for _, req := range reqs {
		if got := filled[req.Slot]; got != req.Count {
			out = append(out, Violation{
				Rule:   RuleSlotCount,
				Detail: fmt.Sprintf("slot %s requires %d players, has %d", req.Slot, req.Count, got),
			})
		}
	}
	return out
}

func checkUniqueness(roster Roster) []Violation {
	var out []Violation

	seen := make(map[string]bool, len(roster.Assignments))
	for _, a := range roster.Assignments {
		if seen[a.Player.ID] {
			out = append(out, Violation{
				Rule:   RuleDuplicate,
				Detail: fmt.Sprintf("player %s assigned to more than one slot", a.Player.ID),
			})
			continue
		}
		seen[a.Player.ID] = true
	}
	return out
}

func checkEligibility(roster Roster, reqs []SlotRequirement) []Violation {
	var out []Violation

	eligible := make(map[string]map[Position]bool, len(reqs))
	for _, req := range reqs {
		eligible[req.Slot] = req.eligibleSet()
	}

	for _, a := range roster.Assignments {
		set, ok := eligible[a.Slot]
		if !ok {
			continue // reported as unknown_slot already
		}
		if !set[a.Player.Position] {
			out = append(out, Violation{
				Rule: RuleEligibility,
				Detail: fmt.Sprintf("player %s (%s) is not eligible for slot %s",
					a.Player.ID, a.Player.Position, a.Slot),
			})
		}
	}
	return out
}

func checkSalaryCap(roster Roster, rules Rules) []Violation {
	if rules.SalaryCap <= 0 {
		return nil
	}
	// Cap is inclusive: spending exactly the cap is legal.
	if total := roster.TotalCost(); total > rules.SalaryCap {
		return []Violation{{
			Rule:   RuleSalaryCap,
			Detail: fmt.Sprintf("total cost %d exceeds cap %d", total, rules.SalaryCap),
		}}
	}
	return nil
}

func checkOwnership(roster Roster, rules Rules) []Violation {
	if rules.MaxOwnership <= 0 {
		return nil
	}
	var out []Violation
	for _, a := range roster.Assignments {
		if a.Player.OwnershipPercent > rules.MaxOwnership {
			out = append(out, Violation{
				Rule: RuleOwnership,
				Detail: fmt.Sprintf("player %s ownership %.1f%% exceeds limit %.1f%%",
					a.Player.ID, a.Player.OwnershipPercent, rules.MaxOwnership),
			})
		}
	}
	return out
}

func checkTeamStacks(roster Roster, rules Rules) []Violation {
	if rules.MaxPerTeam <= 0 {
		return nil
	}
	counts := make(map[string]int)
	var teams []string
	for _, a := range roster.Assignments {
		if counts[a.Player.Team] == 0 {
			teams = append(teams, a.Player.Team)
		}
		counts[a.Player.Team]++
	}

	var out []Violation
	for _, team := range teams {
		if n := counts[team]; n > rules.MaxPerTeam {
			out = append(out, Violation{
				Rule:   RuleTeamStack,
				Detail: fmt.Sprintf("%d players from team %s exceeds limit %d", n, team, rules.MaxPerTeam),
			})
		}
	}
	return out
}
