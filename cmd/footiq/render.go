package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/router"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want table or json)", format)
}

// num formats an optional value; absent values print as "-".
func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// --------------------------------------------------------------------------
// Reports
// --------------------------------------------------------------------------

func renderReport(w io.Writer, rep *engine.Report, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return renderJSON(w, rep)
	}

	fmt.Fprintf(w, "%s (%d)  %s  tier=%s depth=%s mode=%s\n",
		rep.Player.Name, rep.Player.ID, rep.Player.Team, rep.Decision.Tier, rep.Decision.Depth, rep.Decision.DataMode)
	fmt.Fprintf(w, "baseline: %s / %s / %s\n\n", rep.League, rep.Season, rep.Position)

	games := newTable(w)
	games.AppendHeader(table.Row{"Game", "Date", "Opponent", "Score", "Min", "L2"})
	for _, g := range rep.Games {
		detailed := ""
		if g.Detailed {
			detailed = "yes"
		}
		games.AppendRow(table.Row{g.GameID, g.Date, g.Opponent, g.Score, num(g.Minutes), detailed})
	}
	games.Render()
	fmt.Fprintln(w)

	metrics := newTable(w)
	metrics.AppendHeader(table.Row{"Metric", "Total", "Per 90", "Games", "z", "vs league"})
	for _, m := range rep.Metrics {
		total := m.Total
		if m.Mean != nil {
			total = m.Mean
		}
		z, interp := comparisonCols(m.Comparison)
		metrics.AppendRow(table.Row{m.DisplayName, num(total), num(m.Per90), m.GamesCounted, z, interp})
	}
	for _, d := range rep.Derived {
		z, interp := comparisonCols(d.Comparison)
		metrics.AppendRow(table.Row{d.DisplayName, num(d.Value), num(d.Per90), "", z, interp})
	}
	metrics.Render()

	if rep.Form != nil {
		var pts []string
		for _, p := range rep.Form.Points {
			pts = append(pts, num(p.Value))
		}
		fmt.Fprintf(w, "\nform (%s): %s\n", rep.Form.MetricKey, strings.Join(pts, " "))
	}

	if len(rep.Diagnostics) > 0 {
		fmt.Fprintln(w)
		diags := newTable(w)
		diags.AppendHeader(table.Row{"Diagnostic", "Message"})
		for _, d := range rep.Diagnostics {
			diags.AppendRow(table.Row{d.Code, d.Message})
		}
		diags.Render()
	}
	return nil
}

func comparisonCols(c *baseline.Comparison) (string, string) {
	if c == nil {
		return "", ""
	}
	return num(c.ZScore), c.Interpretation
}

func renderDecision(w io.Writer, d router.Decision, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return renderJSON(w, d)
	}
	fmt.Fprintf(w, "tier=%s (raw %s) depth=%s mode=%s downgraded=%t\n", d.Tier, d.RawTier, d.Depth, d.DataMode, d.Downgraded)
	t := newTable(w)
	t.AppendHeader(table.Row{"Tool", "Binding"})
	for _, tb := range d.Tools {
		t.AppendRow(table.Row{tb.Tool, tb.Binding})
	}
	t.Render()
	return nil
}

// renderError prints router aborts as a normal result and returns every
// other error to the caller.
func renderError(w io.Writer, err error, format string) error {
	var abort *router.Abort
	if !errors.As(err, &abort) {
		return err
	}
	if format == formatJSON {
		if jerr := renderJSON(w, map[string]any{"abort": abort}); jerr != nil {
			return jerr
		}
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", abort.Code, abort.Message)
	if len(abort.Options) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Athlete", "Option"})
		for _, o := range abort.Options {
			t.AppendRow(table.Row{o.AthleteID, o.Label})
		}
		t.Render()
	}
	return err
}

// --------------------------------------------------------------------------
// Registry and baselines
// --------------------------------------------------------------------------

func renderDefinitions(w io.Writer, defs []metric.Definition, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return renderJSON(w, defs)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Name", "Type ID", "Kind", "Per 90", "Depth", "Missing"})
	for _, d := range defs {
		typeID := ""
		if d.HasTypeID() {
			typeID = strconv.Itoa(d.TypeID)
		}
		depth := string(d.Depth)
		if d.Derived {
			depth = "derived"
		}
		t.AppendRow(table.Row{d.Key, d.DisplayName, typeID, d.Kind, d.Per90, depth, d.Missing})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "total", len(defs)})
	t.Render()
	return nil
}

func renderBaselines(w io.Writer, source string, entries []baseline.Entry, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return renderJSON(w, map[string]any{"source": source, "entries": entries})
	}
	fmt.Fprintf(w, "source: %s\n", source)
	t := newTable(w)
	t.AppendHeader(table.Row{"League", "Season", "Position", "Metric", "Mean", "Std", "N"})
	for _, e := range entries {
		usable := ""
		if e.N < baseline.MinSample || e.Std == 0 {
			usable = " *"
		}
		t.AppendRow(table.Row{e.League, e.Season, e.Position, string(e.MetricKey) + usable,
			strconv.FormatFloat(e.Mean, 'f', 3, 64), strconv.FormatFloat(e.Std, 'f', 3, 64), e.N})
	}
	t.Render()
	if len(entries) == 0 {
		fmt.Fprintln(w, "no entries")
	}
	return nil
}
