package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	mp "github.com/chemform/molparse"
	"github.com/chemform/molparse/cache"
	"github.com/chemform/molparse/engine"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
)

// Color palette
var (
	colorSuccess = lipgloss.Color("#10B981") // Emerald
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray
)

var (
	formulaStyle = lipgloss.NewStyle().Bold(true)
	countsStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// record is one formula in JSON output.
type record struct {
	Formula     string          `json:"formula"`
	Valid       bool            `json:"valid"`
	Composition *mp.Composition `json:"composition,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	Error       string          `json:"error,omitempty"`
	Rule        string          `json:"rule,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Position    *int            `json:"position,omitempty"`
}

// renderer prints results as styled text or collects them for a single
// JSON document written by flush.
type renderer struct {
	w       io.Writer
	format  string
	color   bool
	records []record
}

func newRenderer(w io.Writer, format string, allowColor bool) *renderer {
	return &renderer{
		w:      w,
		format: format,
		color:  allowColor && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// result prints "formula -> {A: n, ...}".
func (r *renderer) result(res *mp.Result) {
	if r.format == outputJSON {
		comp := res.Composition.Clone()
		r.records = append(r.records, record{
			Formula:     res.Formula,
			Valid:       true,
			Composition: &comp,
			Cached:      res.Cached,
		})
		return
	}
	fmt.Fprintf(r.w, "%s %s %s\n",
		r.style(formulaStyle, res.Formula),
		r.style(mutedStyle, "->"),
		r.style(countsStyle, res.Composition.String()))
}

// valid prints a formula that passed validation.
func (r *renderer) valid(formula string) {
	if r.format == outputJSON {
		r.records = append(r.records, record{Formula: formula, Valid: true})
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", r.style(formulaStyle, formula), r.style(countsStyle, "valid"))
}

// failure prints "Invalid formula! <error>".
func (r *renderer) failure(formula string, err error) {
	if r.format == outputJSON {
		rec := record{Formula: formula, Error: err.Error()}
		if ve, ok := mp.IsValidationError(err); ok {
			rec.Rule = ve.Rule
			rec.Reason = string(ve.Reason)
			if ve.Position >= 0 {
				pos := ve.Position
				rec.Position = &pos
			}
		}
		r.records = append(r.records, rec)
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", r.style(errorStyle, "Invalid formula!"), err.Error())
}

// flush writes the collected JSON document. Text output needs no flush.
func (r *renderer) flush() error {
	if r.format != outputJSON {
		return nil
	}
	records := r.records
	if records == nil {
		records = []record{}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// metricsOutput is the JSON form of --metrics.
type metricsOutput struct {
	Metrics mp.Snapshot `json:"metrics"`
	Cache   cache.Stats `json:"cache"`
}

// writeMetrics prints parser metrics: Prometheus text exposition for text
// output, a snapshot document for JSON.
func writeMetrics(w io.Writer, p *engine.Parser, format, namespace string) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metricsOutput{
			Metrics: p.Metrics().Snapshot(),
			Cache:   p.CacheStats(),
		})
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(p.Collector(namespace)); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
