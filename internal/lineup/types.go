package lineup

// Position is a real-world player position.
type Position string

const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	K   Position = "K"
	DST Position = "DST"
)

// Player is a selection candidate supplied by the sports-data side. The
// engine treats it as immutable input.
type Player struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Position         Position `json:"position"`
	Team             string   `json:"team"`
	Cost             int64    `json:"cost"`
	ProjectedPoints  float64  `json:"projected_points"`
	OwnershipPercent float64  `json:"ownership_percent"`
}

// SlotRequirement names a roster slot, how many players must fill it, and
// which positions are eligible. FLEX-style slots list a union of positions.
type SlotRequirement struct {
	Slot     string
	Count    int
	Eligible []Position
}

func (r SlotRequirement) eligibleSet() map[Position]bool {
	set := make(map[Position]bool, len(r.Eligible))
	for _, p := range r.Eligible {
		set[p] = true
	}
	return set
}

// Rules are the quantitative constraints for a roster format. Zero values
// disable the corresponding check.
type Rules struct {
	SalaryCap    int64   // inclusive ceiling on total cost
	MaxOwnership float64 // per-player ownership ceiling, percent
	MaxPerTeam   int     // stacking limit per real-world team
}

// Assignment places one player in one named slot.
type Assignment struct {
	Slot   string `json:"slot"`
	Player Player `json:"player"`
}

// Roster is an ordered assignment of players to slots.
type Roster struct {
	Assignments []Assignment
}

func (r Roster) TotalCost() int64 {
	var total int64
	for _, a := range r.Assignments {
		total += a.Player.Cost
	}
	return total
}

func (r Roster) TotalPoints() float64 {
	var total float64
	for _, a := range r.Assignments {
		total += a.Player.ProjectedPoints
	}
	return total
}

func (r Roster) TotalOwnership() float64 {
	var total float64
	for _, a := range r.Assignments {
		total += a.Player.OwnershipPercent
	}
	return total
}

// PlayerIDs returns the ids of all assigned players, in assignment order.
func (r Roster) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		ids = append(ids, a.Player.ID)
	}
	return ids
}
