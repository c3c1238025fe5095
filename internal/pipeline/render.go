package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/score"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Renderer writes views in one output format
type Renderer struct {
	w      io.Writer
	format string
}

// NewRenderer creates a renderer; an empty format means text
func NewRenderer(w io.Writer, format string) (*Renderer, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: text, json, yaml)", format)
	}
	return &Renderer{w: w, format: format}, nil
}

// Structured reports whether the renderer emits JSON or YAML
func (r *Renderer) Structured() bool {
	return r.format != FormatText
}

// RenderView writes a full report view
func (r *Renderer) RenderView(view *ReportView) error {
	if r.Structured() {
		return r.Encode(view)
	}

	rep := view.Report
	a := view.Assessment

	fmt.Fprintf(r.w, "Report %s\n", rep.ID)
	fmt.Fprintf(r.w, "  Verdict:        %s (authenticity %d%%)\n", verdictColor(a.Verdict).Sprint(a.Verdict), a.AuthenticityPercent)
	if rep.PredictionLabel != "" {
		fmt.Fprintf(r.w, "  Prediction:     %s\n", rep.PredictionLabel)
	}
	if a.RealPercent != nil {
		fmt.Fprintf(r.w, "  Real prob:      %.2f%%\n", *a.RealPercent)
	}
	if a.FakePercent != nil {
		fmt.Fprintf(r.w, "  Fake prob:      %.2f%%\n", *a.FakePercent)
	}
	fmt.Fprintf(r.w, "  Tamper score:   %.1f\n", rep.TamperScore)
	if rep.MediaURL != "" {
		fmt.Fprintf(r.w, "  Media:          %s\n", rep.MediaURL)
	}
	if rep.HeatmapURL != "" {
		fmt.Fprintf(r.w, "  Heatmap:        %s\n", rep.HeatmapURL)
	}
	if rep.Timestamp != "" {
		fmt.Fprintf(r.w, "  Analyzed:       %s\n", rep.Timestamp)
	}

	switch {
	case view.Votes != nil:
		r.writeTally(*view.Votes)
	case view.VotesError != "":
		fmt.Fprintf(r.w, "  Votes:          unavailable (%s)\n", view.VotesError)
	}

	if len(rep.Exif) > 0 {
		fmt.Fprintln(r.w, "\nEXIF")
		tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
		for _, f := range rep.Exif {
			fmt.Fprintf(tw, "  %s\t%s\n", f.Key, f.Value)
		}
		_ = tw.Flush()
	}

	if len(rep.ReverseMatches) > 0 {
		fmt.Fprintln(r.w, "\nReverse matches")
		for _, m := range rep.ReverseMatches {
			line := "  " + m.Source
			if m.Similarity != "" {
				line += " (" + m.Similarity + ")"
			}
			if m.Date != "" {
				line += " " + m.Date
			}
			fmt.Fprintln(r.w, line)
		}
	}

	if len(a.Signals) > 0 {
		fmt.Fprintln(r.w, "\nSignals")
		for _, s := range a.Signals {
			fmt.Fprintf(r.w, "  [%s] %s\n", severityColor(s.Severity).Sprint(s.Severity), s.Description)
		}
	}
	return nil
}

// RenderTally writes a vote tally
func (r *Renderer) RenderTally(id string, tally model.VoteTally) error {
	if r.Structured() {
		realPct, fakePct := score.VotePercentages(tally)
		return r.Encode(struct {
			ID    string          `json:"id" yaml:"id"`
			Tally model.VoteTally `json:"tally" yaml:"tally"`
			Share model.VoteShare `json:"share" yaml:"share"`
		}{id, tally, model.VoteShare{RealPercent: realPct, FakePercent: fakePct, Total: tally.Total}})
	}

	fmt.Fprintf(r.w, "Report %s\n", id)
	r.writeTally(tally)
	return nil
}

func (r *Renderer) writeTally(t model.VoteTally) {
	realPct, fakePct := score.VotePercentages(t)
	fmt.Fprintf(r.w, "  Votes:          %d real (%.1f%%), %d fake (%.1f%%), %d total\n",
		t.RealCount, realPct, t.FakeCount, fakePct, t.Total)
}

// RenderHistory writes the public listing
func (r *Renderer) RenderHistory(entries []model.HistoryEntry) error {
	if r.Structured() {
		return r.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "No history entries.")
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREDICTION\tREAL\tFAKE\tFILE")
	for _, e := range entries {
		realPct, fakePct := score.VotePercentages(e.Tally())
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.1f%%\t%s\n", e.ID, dash(e.PredictionLabel), realPct, fakePct, dash(e.FileURL))
	}
	return tw.Flush()
}

// RenderRecent writes the local recency list
func (r *Renderer) RenderRecent(entries []model.RecentEntry) error {
	if r.Structured() {
		return r.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "No recent uploads.")
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREDICTION\tADDED\tFILE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, dash(e.PredictionLabel), e.AddedAt.Local().Format("2006-01-02 15:04"), e.FileURL)
	}
	return tw.Flush()
}

// RenderUpload writes an upload result
func (r *Renderer) RenderUpload(result model.UploadResult) error {
	if r.Structured() {
		return r.Encode(result)
	}

	fmt.Fprintf(r.w, "Uploaded %s\n", result.ID)
	if result.PredictionLabel != "" {
		fmt.Fprintf(r.w, "  Prediction:     %s\n", result.PredictionLabel)
	}
	if result.Authenticity != nil {
		verdict := score.Verdict(*result.Authenticity)
		fmt.Fprintf(r.w, "  Verdict:        %s (authenticity %.1f)\n", verdictColor(verdict).Sprint(verdict), *result.Authenticity)
	}
	if result.FileURL != "" {
		fmt.Fprintf(r.w, "  File:           %s\n", result.FileURL)
	}
	if result.Warning != "" {
		fmt.Fprintf(r.w, "  %s %s\n", color.YellowString("warning:"), result.Warning)
	}
	return nil
}

// RenderHealth writes the backend health probe
func (r *Renderer) RenderHealth(h model.HealthStatus) error {
	if r.Structured() {
		return r.Encode(h)
	}
	fmt.Fprintf(r.w, "status=%s device=%s\n", h.Status, dash(h.Device))
	return nil
}

// Encode writes v in the structured format (JSON unless YAML was chosen)
func (r *Renderer) Encode(v any) error {
	switch r.format {
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

func verdictColor(verdict string) *color.Color {
	if verdict == score.VerdictGenuine {
		return color.New(color.FgGreen, color.Bold)
	}
	return color.New(color.FgRed, color.Bold)
}

func severityColor(s model.SignalSeverity) *color.Color {
	switch s {
	case model.SeverityCritical:
		return color.New(color.FgRed)
	case model.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
