package metric

// --------------------------------------------------------------------------
// Catalogue: L1 (always available), L2 (detailed lineups), derived
// --------------------------------------------------------------------------

var catalogue = []Definition{
	// L1
	{TypeID: 10, Key: Rating, DisplayName: "Match Rating", Kind: KindRating, Unit: "0-10 scale",
		Missing: NotCollected, Per90: Per90None, Depth: L1},
	{TypeID: 11, Key: MinutesPlayed, DisplayName: "Minutes Played", Kind: KindCount, Unit: "minutes",
		Missing: TrueZero, Per90: Per90None, Depth: L1},
	{TypeID: 14, Key: YellowCards, DisplayName: "Yellow Cards", Kind: KindCount, Unit: "count",
		Missing: TrueZero, Per90: Per90ByMinutes, Depth: L1},
	{TypeID: 15, Key: RedCards, DisplayName: "Red Cards", Kind: KindCount, Unit: "count",
		Missing: TrueZero, Per90: Per90ByMinutes, Depth: L1},
	{TypeID: 21, Key: Goals, DisplayName: "Goals", Kind: KindCount, Unit: "count",
		Missing: TrueZero, Per90: Per90ByMinutes, Depth: L1},
	{TypeID: 22, Key: Assists, DisplayName: "Assists", Kind: KindCount, Unit: "count",
		Missing: TrueZero, Per90: Per90ByMinutes, Depth: L1},

	// L2
	{TypeID: 42, Key: ExpectedGoals, DisplayName: "Expected Goals (xG)", Kind: KindFloat, Unit: "xG",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},
	{TypeID: 45, Key: KeyPasses, DisplayName: "Key Passes", Kind: KindCount, Unit: "count",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},
	{TypeID: 55, Key: TouchesInBox, DisplayName: "Touches in Penalty Box", Kind: KindCount, Unit: "count",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},
	{TypeID: 56, Key: ShotsTotal, DisplayName: "Total Shots", Kind: KindCount, Unit: "count",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},
	{TypeID: 57, Key: ShotsOnTarget, DisplayName: "Shots on Target", Kind: KindCount, Unit: "count",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},
	{TypeID: 78, Key: TacklesWon, DisplayName: "Tackles Won", Kind: KindCount, Unit: "count",
		Missing: NotCollected, Per90: Per90ByMinutes, Depth: L2},

	// Derived
	{Key: ShotAccuracy, DisplayName: "Shot Accuracy", Kind: KindFloat, Unit: "%",
		Missing: NotCollected, Per90: WeightedRatio, Numerator: ShotsOnTarget, Denominator: ShotsTotal,
		Derived: true, Inputs: []Key{ShotsOnTarget, ShotsTotal}},
	{Key: GoalInvolvement, DisplayName: "Goal Involvement", Kind: KindCount, Unit: "count",
		Missing: TrueZero, Per90: Per90ByMinutes,
		Derived: true, Inputs: []Key{Goals, Assists}},
	{Key: XGOverperformance, DisplayName: "xG Overperformance", Kind: KindFloat, Unit: "goals - xG",
		Missing: NotCollected, Per90: Per90None,
		Derived: true, Inputs: []Key{Goals, ExpectedGoals}},
	{Key: MinutesPerGoal, DisplayName: "Minutes per Goal", Kind: KindFloat, Unit: "minutes",
		Missing: NotCollected, Per90: Per90None,
		Derived: true, Inputs: []Key{MinutesPlayed, Goals}},
}

var (
	byTypeID = make(map[int]Definition, len(catalogue))
	byKey    = make(map[Key]Definition, len(catalogue))
)

func init() {
	for _, d := range catalogue {
		if _, dup := byKey[d.Key]; dup {
			panic("metric: duplicate key " + string(d.Key))
		}
		byKey[d.Key] = d
		if d.HasTypeID() {
			if _, dup := byTypeID[d.TypeID]; dup {
				panic("metric: duplicate type id for " + string(d.Key))
			}
			byTypeID[d.TypeID] = d
		}
	}
}

// MinMinutesPer90 is the minimum window minutes for a per-90 value.
const MinMinutesPer90 = 90

// Lookup resolves a provider type ID. ok=false marks an unresolved metric.
func Lookup(typeID int) (Definition, bool) {
	d, ok := byTypeID[typeID]
	return d, ok
}

// Get resolves a metric key.
func Get(key Key) (Definition, bool) {
	d, ok := byKey[key]
	return d, ok
}

// Per90Eligible reports whether key is a registered per-90-by-minutes metric.
func Per90Eligible(key Key) bool {
	d, ok := byKey[key]
	return ok && d.Per90Eligible()
}

// MissingSemantics returns the missing-data rule for key.
func MissingSemantics(key Key) (Missing, bool) {
	d, ok := byKey[key]
	if !ok {
		return "", false
	}
	return d.Missing, true
}

// All returns every definition in catalogue order.
func All() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Raw returns the provider-backed definitions in catalogue order.
func Raw() []Definition {
	var out []Definition
	for _, d := range catalogue {
		if !d.Derived {
			out = append(out, d)
		}
	}
	return out
}

// Derived returns the derived definitions in catalogue order.
func Derived() []Definition {
	var out []Definition
	for _, d := range catalogue {
		if d.Derived {
			out = append(out, d)
		}
	}
	return out
}

// ByDepth returns the raw definitions available at depth. L2 includes L1.
func ByDepth(depth Depth) []Definition {
	var out []Definition
	for _, d := range catalogue {
		if d.Derived {
			continue
		}
		if d.Depth == L1 || depth == L2 {
			out = append(out, d)
		}
	}
	return out
}
