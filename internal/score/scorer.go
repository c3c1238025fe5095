package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/RoNRiShaV/dfd/internal/model"
)

const (
	VerdictGenuine    = "Likely Genuine"
	VerdictSuspicious = "Suspicious"

	// genuineThreshold is the authenticity score a report must exceed to be
	// called genuine
	genuineThreshold = 70.0
)

// Scorer interprets reports for display. It never alters backend values.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds the assessment of report. tally may be nil when votes
// were not loaded.
func (s *Scorer) Calculate(report *model.AnalysisReport, tally *model.VoteTally) model.Assessment {
	a := model.Assessment{
		Verdict:             Verdict(report.AuthenticityScore),
		AuthenticityPercent: roundHalfUp(report.AuthenticityScore),
		Signals:             make([]model.Signal, 0, 5),
	}

	if report.RealProbability != nil {
		p := ProbabilityPercent(*report.RealProbability)
		a.RealPercent = &p
	}
	if report.FakeProbability != nil {
		p := ProbabilityPercent(*report.FakeProbability)
		a.FakePercent = &p
	}
	if tally != nil {
		realPct, fakePct := VotePercentages(*tally)
		a.Votes = &model.VoteShare{RealPercent: realPct, FakePercent: fakePct, Total: tally.RealCount + tally.FakeCount}
	}

	a.Signals = append(a.Signals, s.tamperSignal(report.TamperScore))
	if sig, ok := s.probabilityBalance(report); ok {
		a.Signals = append(a.Signals, sig)
	}
	if sig, ok := s.communityDisagreement(report.PredictionLabel, tally); ok {
		a.Signals = append(a.Signals, sig)
	}
	if len(report.ReverseMatches) > 0 {
		a.Signals = append(a.Signals, model.Signal{
			Type:        model.SignalReverseMatches,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Found on %d external source(s)", len(report.ReverseMatches)),
			Data:        map[string]interface{}{"matches": len(report.ReverseMatches)},
		})
	}
	if len(report.Exif) == 0 {
		a.Signals = append(a.Signals, model.Signal{
			Type:        model.SignalMissingMetadata,
			Severity:    model.SeverityInfo,
			Description: "No EXIF metadata present",
		})
	}

	return a
}

// Verdict labels an authenticity score
func Verdict(authenticity float64) string {
	if authenticity > genuineThreshold {
		return VerdictGenuine
	}
	return VerdictSuspicious
}

// ProbabilityPercent converts a probability to a percentage rounded to two
// decimals. Each probability is rounded on its own; the pair is never
// normalized.
func ProbabilityPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}

// VoteTenths splits a tally into tenths of a percent. When the tally has any
// votes the two parts sum to exactly 1000; otherwise both are 0.
func VoteTenths(t model.VoteTally) (realTenths, fakeTenths int) {
	total := t.RealCount + t.FakeCount
	if total <= 0 {
		return 0, 0
	}
	// Round half up in integer arithmetic.
	realTenths = (t.RealCount*2000 + total) / (2 * total)
	return realTenths, 1000 - realTenths
}

// VotePercentages returns the tally as one-decimal percentages summing to 100
func VotePercentages(t model.VoteTally) (realPct, fakePct float64) {
	r, f := VoteTenths(t)
	return float64(r) / 10, float64(f) / 10
}

func (s *Scorer) tamperSignal(tamper float64) model.Signal {
	severity := model.SeverityInfo
	switch {
	case tamper >= 80:
		severity = model.SeverityCritical
	case tamper >= 50:
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalTamper,
		Severity:    severity,
		Description: fmt.Sprintf("Tamper score: %.1f", tamper),
		Data: map[string]interface{}{
			"tamper_score": tamper,
			"thresholds":   "warning >= 50, critical >= 80",
		},
	}
}

func (s *Scorer) probabilityBalance(report *model.AnalysisReport) (model.Signal, bool) {
	if !report.HasProbabilities() {
		return model.Signal{}, false
	}
	sum := *report.RealProbability + *report.FakeProbability
	if math.Abs(sum-1) <= 0.01 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalProbabilityBalance,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Real and fake probabilities sum to %.2f; shown as reported", sum),
		Data: map[string]interface{}{
			"real_prob": *report.RealProbability,
			"fake_prob": *report.FakeProbability,
			"sum":       sum,
		},
	}, true
}

func (s *Scorer) communityDisagreement(label string, tally *model.VoteTally) (model.Signal, bool) {
	if tally == nil || tally.RealCount == tally.FakeCount {
		return model.Signal{}, false
	}

	predicted, err := model.ParseChoice(label)
	if err != nil {
		return model.Signal{}, false
	}

	majority := model.ChoiceReal
	if tally.FakeCount > tally.RealCount {
		majority = model.ChoiceFake
	}
	if majority == predicted {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalCommunityDisagreement,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Community majority votes %s, detector predicted %s", majority, strings.ToLower(label)),
		Data: map[string]interface{}{
			"votes_real": tally.RealCount,
			"votes_fake": tally.FakeCount,
			"prediction": label,
		},
	}, true
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
