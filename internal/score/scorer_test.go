package score

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/RoNRiShaV/dfd/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestVotePercentages_Scenario(t *testing.T) {
	real, fake := VotePercentages(model.NewVoteTally(3, 7))
	if fake != 70.0 {
		t.Errorf("Expected fake 70.0, got %v", fake)
	}
	if real != 30.0 {
		t.Errorf("Expected real 30.0, got %v", real)
	}
}

func TestVotePercentages(t *testing.T) {
	tests := []struct {
		name       string
		real, fake int
		wantReal   float64
		wantFake   float64
	}{
		{"no votes", 0, 0, 0, 0},
		{"all real", 5, 0, 100, 0},
		{"all fake", 0, 1, 0, 100},
		{"thirds", 1, 2, 33.3, 66.7},
		{"two thirds", 2, 1, 66.7, 33.3},
		{"sevenths", 1, 6, 14.3, 85.7},
		{"half", 4, 4, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			real, fake := VotePercentages(model.NewVoteTally(tt.real, tt.fake))
			if real != tt.wantReal || fake != tt.wantFake {
				t.Errorf("VotePercentages(%d, %d) = %v/%v, want %v/%v", tt.real, tt.fake, real, fake, tt.wantReal, tt.wantFake)
			}
		})
	}
}

func TestVoteTenths_SumProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("tenths sum to 1000 when votes exist, else both 0", prop.ForAll(
		func(real, fake int) bool {
			r, f := VoteTenths(model.NewVoteTally(real, fake))
			if real+fake == 0 {
				return r == 0 && f == 0
			}
			return r+f == 1000 && r >= 0 && f >= 0
		},
		gen.IntRange(0, 100000), gen.IntRange(0, 100000),
	))

	properties.Property("percentages sum to 100", prop.ForAll(
		func(real, fake int) bool {
			r, f := VotePercentages(model.NewVoteTally(real, fake))
			return math.Abs(r+f-100) < 1e-9
		},
		gen.IntRange(0, 100000), gen.IntRange(1, 100000),
	))

	properties.Property("within half a tenth of the exact share", prop.ForAll(
		func(real, fake int) bool {
			r, _ := VotePercentages(model.NewVoteTally(real, fake))
			exact := float64(real) / float64(real+fake) * 100
			return math.Abs(r-exact) <= 0.05+1e-9
		},
		gen.IntRange(0, 100000), gen.IntRange(1, 100000),
	))

	properties.TestingRun(t)
}

func TestProbabilityPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.8, 80},
		{0.2, 20},
		{0.1234, 12.34},
		{0.98766, 98.77},
		{0.004, 0.4},
		{0, 0},
		{1, 100},
	}
	for _, tt := range tests {
		if got := ProbabilityPercent(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ProbabilityPercent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProbabilityPercent_Independent(t *testing.T) {
	// 0.333 and 0.333 stay as reported; no forcing to 100.
	real := ProbabilityPercent(0.333)
	fake := ProbabilityPercent(0.333)
	if real != 33.3 || fake != 33.3 {
		t.Errorf("Expected 33.3/33.3, got %v/%v", real, fake)
	}
}

func TestVerdict(t *testing.T) {
	if Verdict(70) != VerdictSuspicious {
		t.Error("Expected 70 to be suspicious")
	}
	if Verdict(70.1) != VerdictGenuine {
		t.Error("Expected 70.1 to be genuine")
	}
	if Verdict(0) != VerdictSuspicious {
		t.Error("Expected 0 to be suspicious")
	}
}

func TestScorer_Calculate(t *testing.T) {
	scorer := NewScorer()

	report := &model.AnalysisReport{
		ID:                "cat.jpg",
		AuthenticityScore: 82.4,
		TamperScore:       12,
		PredictionLabel:   "real",
		RealProbability:   f64(0.8),
		FakeProbability:   f64(0.2),
		Exif:              []model.ExifField{{Key: "Model", Value: "Canon"}},
	}
	tally := model.NewVoteTally(3, 7)

	a := scorer.Calculate(report, &tally)

	if a.Verdict != VerdictGenuine {
		t.Errorf("Expected genuine verdict, got %q", a.Verdict)
	}
	if a.AuthenticityPercent != 82 {
		t.Errorf("Expected 82%%, got %d", a.AuthenticityPercent)
	}
	if a.RealPercent == nil || *a.RealPercent != 80 {
		t.Errorf("Expected real 80, got %v", a.RealPercent)
	}
	if a.Votes == nil || a.Votes.FakePercent != 70.0 || a.Votes.Total != 10 {
		t.Errorf("Unexpected vote share %+v", a.Votes)
	}

	if !hasSignal(a, model.SignalCommunityDisagreement) {
		t.Error("Expected community disagreement signal")
	}
	if hasSignal(a, model.SignalProbabilityBalance) {
		t.Error("Did not expect probability balance signal for 0.8/0.2")
	}
	if hasSignal(a, model.SignalMissingMetadata) {
		t.Error("Did not expect missing metadata signal")
	}
}

func TestScorer_Calculate_Sparse(t *testing.T) {
	scorer := NewScorer()

	report := &model.AnalysisReport{
		ID:              "x",
		TamperScore:     91,
		RealProbability: f64(0.6),
		FakeProbability: f64(0.6),
		ReverseMatches:  []model.ReverseMatch{{Source: "example.com"}},
	}

	a := scorer.Calculate(report, nil)

	if a.Verdict != VerdictSuspicious {
		t.Errorf("Expected suspicious verdict, got %q", a.Verdict)
	}
	if a.Votes != nil {
		t.Errorf("Expected no vote share without a tally, got %+v", a.Votes)
	}
	if *a.RealPercent != 60 || *a.FakePercent != 60 {
		t.Errorf("Probabilities must not be normalized, got %v/%v", *a.RealPercent, *a.FakePercent)
	}

	for _, want := range []model.SignalType{model.SignalProbabilityBalance, model.SignalReverseMatches, model.SignalMissingMetadata} {
		if !hasSignal(a, want) {
			t.Errorf("Expected %s signal", want)
		}
	}
	for _, s := range a.Signals {
		if s.Type == model.SignalTamper && s.Severity != model.SeverityCritical {
			t.Errorf("Expected critical tamper signal, got %s", s.Severity)
		}
	}
}

func TestScorer_CommunityAgreement(t *testing.T) {
	scorer := NewScorer()
	report := &model.AnalysisReport{ID: "x", PredictionLabel: "FAKE"}

	tally := model.NewVoteTally(1, 4)
	if hasSignal(scorer.Calculate(report, &tally), model.SignalCommunityDisagreement) {
		t.Error("Did not expect disagreement when majority matches prediction")
	}

	tie := model.NewVoteTally(2, 2)
	if hasSignal(scorer.Calculate(report, &tie), model.SignalCommunityDisagreement) {
		t.Error("Did not expect disagreement on a tie")
	}
}

func hasSignal(a model.Assessment, typ model.SignalType) bool {
	for _, s := range a.Signals {
		if s.Type == typ {
			return true
		}
	}
	return false
}
