package model

// Assessment is the display-ready interpretation of a report and its votes
type Assessment struct {
	Verdict             string     `json:"verdict" yaml:"verdict"`                             // "Likely Genuine" or "Suspicious"
	AuthenticityPercent int        `json:"authenticity_percent" yaml:"authenticity_percent"` // Authenticity score rounded half up
	RealPercent         *float64   `json:"real_percent,omitempty" yaml:"real_percent,omitempty"`
	FakePercent         *float64   `json:"fake_percent,omitempty" yaml:"fake_percent,omitempty"`
	Votes               *VoteShare `json:"votes,omitempty" yaml:"votes,omitempty"`
	Signals             []Signal   `json:"signals" yaml:"signals"`
}

// VoteShare is a tally expressed as one-decimal percentages summing to 100
type VoteShare struct {
	RealPercent float64 `json:"real_percent" yaml:"real_percent"`
	FakePercent float64 `json:"fake_percent" yaml:"fake_percent"`
	Total       int     `json:"total" yaml:"total"`
}

// Signal is a diagnostic observation with the data that produced it
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalTamper                SignalType = "tamper"                 // Tamper score level
	SignalProbabilityBalance    SignalType = "probability_balance"    // Real/fake probabilities do not sum to 1
	SignalCommunityDisagreement SignalType = "community_disagreement" // Vote majority contradicts the prediction
	SignalReverseMatches        SignalType = "reverse_matches"        // Media found on external sources
	SignalMissingMetadata       SignalType = "missing_metadata"       // No EXIF fields
)

// SignalSeverity indicates the importance of a signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
