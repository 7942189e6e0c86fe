// Package metric is the closed registry of player metrics the engine knows
// about: provider type IDs, canonical keys, missing-data semantics and
// per-90 rules. Everything downstream resolves metrics through this table.
package metric

// Key is the canonical metric key used across the system.
type Key string

const (
	Rating            Key = "rating"
	MinutesPlayed     Key = "minutes_played"
	YellowCards       Key = "yellow_cards"
	RedCards          Key = "red_cards"
	Goals             Key = "goals"
	Assists           Key = "assists"
	ExpectedGoals     Key = "expected_goals"
	KeyPasses         Key = "key_passes"
	TouchesInBox      Key = "touches_in_box"
	ShotsTotal        Key = "shots_total"
	ShotsOnTarget     Key = "shots_on_target"
	TacklesWon        Key = "tackles_won"
	ShotAccuracy      Key = "shot_accuracy"
	GoalInvolvement   Key = "goal_involvement"
	XGOverperformance Key = "xg_overperformance"
	MinutesPerGoal    Key = "minutes_per_goal"
)

// Kind is the data kind of a metric value.
type Kind string

const (
	KindCount  Kind = "count"
	KindFloat  Kind = "float"
	KindRating Kind = "rating"
)

// Missing says how an absent or null provider value is interpreted.
type Missing string

const (
	// TrueZero: absence means the event did not happen.
	TrueZero Missing = "true_zero"
	// NotCollected: absence means the data was never collected.
	NotCollected Missing = "missing"
)

// Per90Rule selects how a metric is normalized across a window.
type Per90Rule string

const (
	Per90ByMinutes Per90Rule = "per90_by_minutes"
	WeightedRatio  Per90Rule = "weighted_ratio"
	Per90None      Per90Rule = "none"
)

// Depth is the provider data tier a raw metric comes from.
type Depth string

const (
	L1 Depth = "L1"
	L2 Depth = "L2"
)

// Definition describes one metric. Definitions are immutable.
type Definition struct {
	TypeID      int // provider stat type; 0 for derived metrics
	Key         Key
	DisplayName string
	Kind        Kind
	Unit        string
	Missing     Missing
	Per90       Per90Rule
	Depth       Depth // empty for derived metrics

	// Weighted ratio operands.
	Numerator   Key
	Denominator Key

	Derived bool
	Inputs  []Key
}

// Per90Eligible reports whether the metric is normalized by minutes.
func (d Definition) Per90Eligible() bool {
	return d.Per90 == Per90ByMinutes
}

// HasTypeID reports whether the metric is read directly from provider data.
func (d Definition) HasTypeID() bool {
	return d.TypeID != 0
}
