package engine

import (
	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/derive"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/extract"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/router"
)

// compute fills rep from the fetched games. lineups is nil below L2, or
// indexed like games with nil slots for lineups that could not be loaded.
// Extraction runs in game order so the output does not depend on fetch
// timing.
func (e *Engine) compute(rep *Report, dec router.Decision, req Request, games []provider.Game, lineups []*provider.Lineup, tbl *baseline.Table, col *diag.Collector) error {
	detailed := lineups != nil

	keys := rawKeys(dec.Depth, detailed)
	samples := make(map[metric.Key][]aggregate.Sample, len(keys))
	rep.Games = make([]GameSummary, 0, len(games))

	for i, g := range games {
		minutes, err := extract.Extract(g.Statistics, metric.MinutesPlayed, g.ID)
		if err != nil {
			return err
		}
		var mins float64
		if minutes.Value != nil {
			mins = *minutes.Value
		}

		var lu *provider.Lineup
		if detailed {
			lu = lineups[i]
		}
		rep.Games = append(rep.Games, GameSummary{
			GameID:   g.ID,
			Date:     g.Date,
			Opponent: g.Opponent(),
			Score:    g.Score,
			Minutes:  minutes.Value,
			Detailed: lu != nil,
		})

		extract.ScanUnknown(g.Statistics, g.ID, col)
		if lu != nil {
			extract.ScanUnknown(lu.Statistics, g.ID, col)
		}

		for _, k := range keys {
			v, err := e.extractOne(k, g, lu)
			if err != nil {
				return err
			}
			samples[k] = append(samples[k], aggregate.Sample{Value: v, Minutes: mins})
		}
	}

	// Aggregate
	aggregated := make(map[metric.Key]aggregate.Metric, len(keys))
	for _, k := range keys {
		m, ds, err := aggregate.Aggregate(k, samples[k])
		if err != nil {
			return err
		}
		aggregated[k] = m
		if want(req.Metrics, k) {
			col.Add(ds...)
		}
	}
	for _, k := range req.Metrics {
		def, _ := metric.Get(k)
		switch {
		case def.Derived && !dec.Allows(router.CalculateDerived):
			col.Add(diag.New(diag.MetricUnavailable,
				map[string]any{"metric_key": string(k), "reason": "requires_calculate_derived", "tier": string(dec.Tier)},
				"Metric '%s' is derived, which this query does not calculate", k))
		case (def.Depth == metric.L2 || k == metric.ShotAccuracy) && !detailed:
			col.Add(diag.New(diag.MetricUnavailable,
				map[string]any{"metric_key": string(k), "reason": "requires_L2", "depth": string(dec.Depth)},
				"Metric '%s' needs detailed stats, which this query does not fetch", k))
		}
	}

	compare := dec.Allows(router.CompareToLeague)
	for _, k := range keys {
		if !want(req.Metrics, k) {
			continue
		}
		def, _ := metric.Get(k)
		m := aggregated[k]
		mr := MetricResult{Metric: m, DisplayName: def.DisplayName, Total: m.Total()}
		if def.Kind == metric.KindRating {
			mr.Mean = m.Mean()
		}
		if compare && def.Per90Eligible() {
			mr.Comparison = compareTo(tbl, k, m.Per90, req, col)
		}
		rep.Metrics = append(rep.Metrics, mr)
	}

	// Derive
	if dec.Allows(router.CalculateDerived) {
		if detailed {
			r, ds, err := shotAccuracy(samples)
			if err != nil {
				return err
			}
			if want(req.Metrics, metric.ShotAccuracy) {
				col.Add(ds...)
				rep.Derived = append(rep.Derived, r)
			}
		}
		results, ds, err := derive.All(aggregated)
		if err != nil {
			return err
		}
		for _, d := range ds {
			if k, _ := d.Details["metric_key"].(string); want(req.Metrics, metric.Key(k)) {
				col.Add(d)
			}
		}
		for _, r := range results {
			if !want(req.Metrics, r.Key) {
				continue
			}
			def, _ := metric.Get(r.Key)
			dr := DerivedResult{Result: r, DisplayName: def.DisplayName}
			if compare && def.Per90Eligible() {
				dr.Comparison = compareTo(tbl, r.Key, r.Per90, req, col)
			}
			rep.Derived = append(rep.Derived, dr)
		}
	}

	// Form
	if dec.Allows(router.ShowFormChart) {
		rep.Form = formSeries(req.FormMetric, games, samples)
	}
	return nil
}

// rawKeys lists the registry keys read at depth, in catalogue order. L2 keys
// are only read when lineups were fetched.
func rawKeys(depth metric.Depth, detailed bool) []metric.Key {
	if !detailed {
		depth = metric.L1
	}
	var out []metric.Key
	for _, d := range metric.ByDepth(depth) {
		out = append(out, d.Key)
	}
	return out
}

// extractOne reads k for one game. L2 keys come from the lineup; a missing
// lineup makes the value unavailable whatever the metric's semantics.
func (e *Engine) extractOne(k metric.Key, g provider.Game, lu *provider.Lineup) (extract.Value, error) {
	def, _ := metric.Get(k)
	if def.Depth != metric.L2 {
		return extract.Extract(g.Statistics, k, g.ID)
	}
	if lu == nil {
		return extract.Value{Key: k, GameID: g.ID}, nil
	}
	return extract.Extract(lu.Statistics, k, g.ID)
}

func compareTo(tbl *baseline.Table, k metric.Key, per90 *float64, req Request, col *diag.Collector) *baseline.Comparison {
	c, d := tbl.Compare(k, per90, req.League, req.Season, req.Position)
	if d != nil {
		col.Add(*d)
	}
	return &c
}

func shotAccuracy(samples map[metric.Key][]aggregate.Sample) (DerivedResult, []diag.Diagnostic, error) {
	def, _ := metric.Get(metric.ShotAccuracy)
	m, ds, err := aggregate.Ratio(metric.ShotAccuracy, values(samples[def.Numerator]), values(samples[def.Denominator]))
	if err != nil {
		return DerivedResult{}, nil, err
	}
	return DerivedResult{
		Result:      derive.Result{Key: metric.ShotAccuracy, Value: m.Per90},
		DisplayName: def.DisplayName,
	}, ds, nil
}

func formSeries(k metric.Key, games []provider.Game, samples map[metric.Key][]aggregate.Sample) *FormSeries {
	fs := &FormSeries{MetricKey: k, Points: make([]FormPoint, 0, len(games))}
	s := samples[k]
	for i, g := range games {
		p := FormPoint{GameID: g.ID, Date: g.Date}
		if i < len(s) && s[i].Value.Value != nil {
			v := *s[i].Value.Value
			p.Value = &v
			fs.Available++
		}
		fs.Points = append(fs.Points, p)
	}
	return fs
}

func values(s []aggregate.Sample) []extract.Value {
	out := make([]extract.Value, len(s))
	for i := range s {
		out[i] = s[i].Value
	}
	return out
}

// want reports whether k is in the requested set. An empty set means all.
func want(requested []metric.Key, k metric.Key) bool {
	if len(requested) == 0 {
		return true
	}
	for _, r := range requested {
		if r == k {
			return true
		}
	}
	return false
}
