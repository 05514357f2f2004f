package lineup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classicSlots() []SlotRequirement {
	return []SlotRequirement{
		{Slot: "QB", Count: 1, Eligible: []Position{QB}},
		{Slot: "RB", Count: 2, Eligible: []Position{RB}},
		{Slot: "WR", Count: 2, Eligible: []Position{WR}},
		{Slot: "FLEX", Count: 1, Eligible: []Position{RB, WR, TE}},
	}
}

func classicRules() Rules {
	return Rules{SalaryCap: 50000, MaxOwnership: 60, MaxPerTeam: 3}
}

func player(id string, pos Position, team string, cost int64, points, ownership float64) Player {
	return Player{
		ID: id, Name: id, Position: pos, Team: team,
		Cost: cost, ProjectedPoints: points, OwnershipPercent: ownership,
	}
}

func completeRoster() Roster {
	return Roster{Assignments: []Assignment{
		{Slot: "QB", Player: player("qb1", QB, "KC", 8500, 25, 20)},
		{Slot: "RB", Player: player("rb1", RB, "SF", 9500, 22, 30)},
		{Slot: "RB", Player: player("rb2", RB, "DAL", 7000, 18, 15)},
		{Slot: "WR", Player: player("wr1", WR, "MIA", 8000, 19, 25)},
		{Slot: "WR", Player: player("wr2", WR, "DET", 6500, 16, 10)},
		{Slot: "FLEX", Player: player("te1", TE, "KC", 5000, 12, 8)},
	}}
}

func TestValidateCompleteRoster(t *testing.T) {
	res := Validate(completeRoster(), classicSlots(), classicRules(), false)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Violations)
}

func TestValidateEmptyRosterInvalid(t *testing.T) {
	res := Validate(Roster{}, classicSlots(), classicRules(), true)
	require.False(t, res.Valid, "empty roster must never be valid")

	// Every required slot is cited as unfilled.
	assert.Len(t, res.Violations, len(classicSlots()))
	for _, v := range res.Violations {
		assert.Equal(t, RuleSlotCount, v.Rule)
	}
}

func TestValidateMissingSlotCitedThenFilledFlips(t *testing.T) {
	roster := completeRoster()
	roster.Assignments = roster.Assignments[:len(roster.Assignments)-1] // drop FLEX

	res := Validate(roster, classicSlots(), classicRules(), false)
	require.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, RuleSlotCount, res.Violations[0].Rule)
	assert.Contains(t, res.Violations[0].Detail, "FLEX")

	// Filling the slot with an eligible player within cap flips the result.
	roster.Assignments = append(roster.Assignments,
		Assignment{Slot: "FLEX", Player: player("wr3", WR, "BUF", 4000, 10, 5)})
	res = Validate(roster, classicSlots(), classicRules(), false)
	assert.True(t, res.Valid)
}

func TestValidateOverfilledSlot(t *testing.T) {
	roster := completeRoster()
	roster.Assignments = append(roster.Assignments,
		Assignment{Slot: "QB", Player: player("qb2", QB, "BUF", 7800, 23, 18)})

	res := Validate(roster, classicSlots(), classicRules(), false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleSlotCount, res.Violations[0].Rule)
	assert.Contains(t, res.Violations[0].Detail, "QB")
}

func TestValidateUnknownSlot(t *testing.T) {
	roster := completeRoster()
	roster.Assignments = append(roster.Assignments,
		Assignment{Slot: "SUPERFLEX", Player: player("qb2", QB, "BUF", 7800, 23, 18)})

	res := Validate(roster, classicSlots(), classicRules(), true)
	require.False(t, res.Valid)

	var rules []string
	for _, v := range res.Violations {
		rules = append(rules, v.Rule)
	}
	assert.Contains(t, rules, RuleUnknownSlot)
}

func TestValidateDuplicatePlayer(t *testing.T) {
	roster := completeRoster()
	// Same player in RB and FLEX.
	roster.Assignments[5] = Assignment{Slot: "FLEX", Player: roster.Assignments[1].Player}

	res := Validate(roster, classicSlots(), classicRules(), false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleDuplicate, res.Violations[0].Rule)
	assert.Contains(t, res.Violations[0].Detail, "rb1")
}

func TestValidateIneligiblePosition(t *testing.T) {
	roster := completeRoster()
	roster.Assignments[0] = Assignment{Slot: "QB", Player: player("rb9", RB, "NYJ", 8500, 25, 20)}

	res := Validate(roster, classicSlots(), classicRules(), false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleEligibility, res.Violations[0].Rule)
}

func TestValidateFlexAcceptsUnion(t *testing.T) {
	for _, pos := range []Position{RB, WR, TE} {
		roster := completeRoster()
		roster.Assignments[5] = Assignment{Slot: "FLEX", Player: player("flex-"+string(pos), pos, "GB", 5000, 12, 8)}
		res := Validate(roster, classicSlots(), classicRules(), false)
		assert.True(t, res.Valid, "FLEX should accept %s", pos)
	}

	roster := completeRoster()
	roster.Assignments[5] = Assignment{Slot: "FLEX", Player: player("qb9", QB, "GB", 5000, 12, 8)}
	res := Validate(roster, classicSlots(), classicRules(), false)
	assert.False(t, res.Valid, "FLEX should reject QB")
}

func TestValidateSalaryCapInclusive(t *testing.T) {
	roster := completeRoster()
	rules := classicRules()
	rules.SalaryCap = roster.TotalCost() // exactly at the cap

	res := Validate(roster, classicSlots(), rules, false)
	assert.True(t, res.Valid, "spending exactly the cap is legal")

	rules.SalaryCap = roster.TotalCost() - 1
	res = Validate(roster, classicSlots(), rules, false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleSalaryCap, res.Violations[0].Rule)
}

func TestValidateOwnershipLimit(t *testing.T) {
	roster := completeRoster()
	roster.Assignments[1].Player.OwnershipPercent = 75

	res := Validate(roster, classicSlots(), classicRules(), false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleOwnership, res.Violations[0].Rule)
	assert.Contains(t, res.Violations[0].Detail, "rb1")
}

func TestValidateTeamStackLimit(t *testing.T) {
	roster := completeRoster()
	rules := classicRules()
	rules.MaxPerTeam = 1 // KC appears twice in the fixture

	res := Validate(roster, classicSlots(), rules, false)
	require.False(t, res.Valid)
	assert.Equal(t, RuleTeamStack, res.Violations[0].Rule)
	assert.Contains(t, res.Violations[0].Detail, "KC")
}

func TestValidateDisabledRulesSkipped(t *testing.T) {
	roster := completeRoster()
	roster.Assignments[1].Player.OwnershipPercent = 99

	res := Validate(roster, classicSlots(), Rules{}, false)
	assert.True(t, res.Valid, "zero-valued rules disable cap, ownership, and stacking checks")
}

func TestValidateCollectAllReportsEveryViolation(t *testing.T) {
	roster := completeRoster()
	roster.Assignments = roster.Assignments[:5]                         // FLEX unfilled
	roster.Assignments[0].Player.Position = RB                          // QB slot ineligible
	roster.Assignments[1].Player.OwnershipPercent = 90                  // over ownership
	rules := classicRules()
	rules.SalaryCap = 10000 // well under the roster's cost

	res := Validate(roster, classicSlots(), rules, true)
	require.False(t, res.Valid)

	got := make(map[string]bool)
	for _, v := range res.Violations {
		got[v.Rule] = true
	}
	assert.True(t, got[RuleSlotCount])
	assert.True(t, got[RuleEligibility])
	assert.True(t, got[RuleSalaryCap])
	assert.True(t, got[RuleOwnership])
}

func TestValidateShortCircuitStopsAtFirstFamily(t *testing.T) {
	roster := completeRoster()
	roster.Assignments = roster.Assignments[:5] // slot violation
	rules := classicRules()
	rules.SalaryCap = 1 // cap violation too

	res := Validate(roster, classicSlots(), rules, false)
	require.False(t, res.Valid)
	for _, v := range res.Violations {
		assert.Equal(t, RuleSlotCount, v.Rule, "short-circuit mode stops at the first violated family")
	}
}
