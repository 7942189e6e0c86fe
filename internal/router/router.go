// Package router is the deterministic gate that runs before any tool: it
// classifies a query into an intent tier, applies the request's depth and
// data-mode constraints, and aborts early when preconditions fail.
package router

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/albapepper/footiq/internal/metric"
)

// Tier is an intent tier.
type Tier string

const (
	Surface Tier = "Surface"
	Deep    Tier = "Deep"
	Compare Tier = "Compare"
)

// Tool names a capability the downstream reasoning loop may call.
type Tool string

const (
	SearchPlayer     Tool = "search_player"
	GetRecentGames   Tool = "get_recent_games"
	CalculatePer90   Tool = "calculate_per90"
	CompareToLeague  Tool = "compare_to_league"
	GetDetailedStats Tool = "get_detailed_stats"
	CalculateDerived Tool = "calculate_derived"
	ShowFormChart    Tool = "show_form_chart"
)

// Binding says what a tool runs against for this request.
type Binding string

const (
	Network Binding = "network"
	Fixture Binding = "fixture"
	Cache   Binding = "cache"
	Local   Binding = "local"
)

// networkTools fetch from the upstream provider when bound to Network.
var networkTools = map[Tool]bool{
	SearchPlayer:     true,
	GetRecentGames:   true,
	GetDetailedStats: true,
}

// MaxDepth constraint values.
const (
	DepthAuto = "auto"
	DepthL1   = "L1"
	DepthL2   = "L2"
)

// Data modes.
const (
	ModeLive   = "live"
	ModeReplay = "replay"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Constraints are the explicit per-request limits.
type Constraints struct {
	MaxDepth       string `json:"max_depth"`
	DataMode       string `json:"data_mode"`
	AllowLiveFetch *bool  `json:"allow_live_fetch,omitempty"`
}

// Normalize fills defaults and rejects unknown values.
func (c Constraints) Normalize() (Constraints, error) {
	if c.MaxDepth == "" {
		c.MaxDepth = DepthAuto
	}
	if c.DataMode == "" {
		c.DataMode = ModeLive
	}
	switch c.MaxDepth {
	case DepthAuto, DepthL1, DepthL2:
	default:
		return c, fmt.Errorf("invalid max_depth %q", c.MaxDepth)
	}
	switch c.DataMode {
	case ModeLive, ModeReplay:
	default:
		return c, fmt.Errorf("invalid data_mode %q", c.DataMode)
	}
	return c, nil
}

func (c Constraints) liveFetchAllowed() bool {
	return c.AllowLiveFetch == nil || *c.AllowLiveFetch
}

// ToolBinding is one allowed tool and what it runs against.
type ToolBinding struct {
	Tool    Tool    `json:"tool"`
	Binding Binding `json:"binding"`
}

// Decision is the router's verdict for one query.
type Decision struct {
	RawTier    Tier          `json:"raw_tier"`
	Tier       Tier          `json:"tier"`
	Depth      metric.Depth  `json:"depth"`
	Tools      []ToolBinding `json:"allowed_tools"`
	DataMode   string        `json:"data_mode"`
	Downgraded bool          `json:"downgraded"`
}

// Allows reports whether tool is in the allowed set.
func (d Decision) Allows(tool Tool) bool {
	_, ok := d.Binding(tool)
	return ok
}

// Binding returns what tool is bound to.
func (d Decision) Binding(tool Tool) (Binding, bool) {
	for _, tb := range d.Tools {
		if tb.Tool == tool {
			return tb.Binding, true
		}
	}
	return "", false
}

// ToolNames lists the allowed tools in order.
func (d Decision) ToolNames() []Tool {
	out := make([]Tool, len(d.Tools))
	for i, tb := range d.Tools {
		out[i] = tb.Tool
	}
	return out
}

// --------------------------------------------------------------------------
// Classification
// --------------------------------------------------------------------------

var pronouns = map[string]bool{
	"he": true, "she": true, "they": true, "him": true, "her": true, "his": true, "their": true,
}

var (
	compareMarkers = []string{"compare", " vs ", "versus", "better than"}
	deepMarkers    = []string{"why", "analy", "xg", "shot", "heatmap", "tactical", "declin", "improv"}
)

// Classify picks the raw tier for query. A pronoun with no prior turns is an
// INSUFFICIENT_CONTEXT abort. When several tiers match, Compare wins over
// Deep, and Deep over Surface.
func Classify(query string, history []Message) (Tier, error) {
	q := strings.ToLower(query)

	if len(history) == 0 {
		words := strings.FieldsFunc(q, func(r rune) bool {
			return !unicode.IsLetter(r) && r != '\''
		})
		for _, w := range words {
			if pronouns[w] {
				return "", &Abort{
					Code:    InsufficientContext,
					Message: "The question refers to someone not named yet. Which player do you mean?",
				}
			}
		}
	}

	padded := " " + q + " "
	for _, m := range compareMarkers {
		if strings.Contains(padded, m) {
			return Compare, nil
		}
	}
	for _, m := range deepMarkers {
		if strings.Contains(q, m) {
			return Deep, nil
		}
	}
	return Surface, nil
}

// --------------------------------------------------------------------------
// Decision table
// --------------------------------------------------------------------------

var baseTools = []Tool{SearchPlayer, GetRecentGames, CalculatePer90, CompareToLeague}

type row struct {
	raw      Tier
	maxDepth string // "" matches any
	tier     Tier
	depth    metric.Depth
	extra    []Tool
}

// table is evaluated top to bottom; the first matching row wins.
var table = []row{
	{raw: Surface, maxDepth: DepthAuto, tier: Surface, depth: metric.L1},
	{raw: Surface, maxDepth: DepthL1, tier: Surface, depth: metric.L1},
	{raw: Surface, maxDepth: DepthL2, tier: Surface, depth: metric.L2, extra: []Tool{GetDetailedStats}},
	{raw: Deep, maxDepth: DepthAuto, tier: Deep, depth: metric.L2, extra: []Tool{GetDetailedStats, CalculateDerived, ShowFormChart}},
	{raw: Deep, maxDepth: DepthL2, tier: Deep, depth: metric.L2, extra: []Tool{GetDetailedStats, CalculateDerived, ShowFormChart}},
	{raw: Deep, maxDepth: DepthL1, tier: Surface, depth: metric.L1},
	{raw: Compare, tier: Compare, depth: metric.L1},
}

// Decide classifies query and evaluates one decision-table row against the
// constraints. Aborts are returned as *Abort.
func Decide(query string, history []Message, c Constraints) (Decision, error) {
	c, err := c.Normalize()
	if err != nil {
		return Decision{}, err
	}
	raw, err := Classify(query, history)
	if err != nil {
		return Decision{}, err
	}

	for _, r := range table {
		if r.raw != raw || (r.maxDepth != "" && r.maxDepth != c.MaxDepth) {
			continue
		}
		d := Decision{
			RawTier:    raw,
			Tier:       r.tier,
			Depth:      r.depth,
			DataMode:   c.DataMode,
			Downgraded: r.tier != raw,
		}
		tools := append(append([]Tool(nil), baseTools...), r.extra...)
		for _, t := range tools {
			d.Tools = append(d.Tools, ToolBinding{Tool: t, Binding: bind(t, c)})
		}
		return d, nil
	}
	return Decision{}, fmt.Errorf("no decision row for tier %s at depth %s", raw, c.MaxDepth)
}

func bind(t Tool, c Constraints) Binding {
	if !networkTools[t] {
		return Local
	}
	switch {
	case c.DataMode == ModeReplay:
		return Fixture
	case !c.liveFetchAllowed():
		return Cache
	default:
		return Network
	}
}
