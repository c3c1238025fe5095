package model

import (
	"fmt"
	"strings"
	"time"
)

// VoteTally is the community vote count for a report as last reported by the server
type VoteTally struct {
	RealCount int `json:"votes_real" yaml:"votes_real"`
	FakeCount int `json:"votes_fake" yaml:"votes_fake"`
	Total     int `json:"total" yaml:"total"` // Always RealCount + FakeCount
}

// NewVoteTally builds a tally whose total is derived from the two counts
func NewVoteTally(real, fake int) VoteTally {
	return VoteTally{RealCount: real, FakeCount: fake, Total: real + fake}
}

// Choice is a community vote
type Choice string

const (
	ChoiceReal Choice = "real"
	ChoiceFake Choice = "fake"
)

// ParseChoice parses a vote choice (case-insensitive)
func ParseChoice(s string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(s))) {
	case ChoiceReal:
		return ChoiceReal, nil
	case ChoiceFake:
		return ChoiceFake, nil
	default:
		return "", fmt.Errorf("invalid vote %q (expected real or fake)", s)
	}
}

// HistoryEntry is one item of the public listing of past reports
type HistoryEntry struct {
	ID              string `json:"id" yaml:"id"`
	FileURL         string `json:"file_url" yaml:"file_url"`
	PredictionLabel string `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	RealCount       int    `json:"votes_real" yaml:"votes_real"`
	FakeCount       int    `json:"votes_fake" yaml:"votes_fake"`
}

// Tally returns the entry's vote counts as a tally
func (e HistoryEntry) Tally() VoteTally {
	return NewVoteTally(e.RealCount, e.FakeCount)
}

// RecentEntry is a pointer to an upload kept in the client-local recency list
type RecentEntry struct {
	ID              string    `json:"id" yaml:"id"`
	FileURL         string    `json:"file_url" yaml:"file_url"`
	PredictionLabel string    `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	AddedAt         time.Time `json:"added_at" yaml:"added_at"`
}

// UploadResult is the backend's answer to a media upload
type UploadResult struct {
	ID              string   `json:"id" yaml:"id"`
	Filename        string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	FileURL         string   `json:"file_url,omitempty" yaml:"file_url,omitempty"`
	PredictionLabel string   `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	Authenticity    *float64 `json:"authenticity,omitempty" yaml:"authenticity,omitempty"`
	RealProbability *float64 `json:"real_prob,omitempty" yaml:"real_prob,omitempty"`
	FakeProbability *float64 `json:"fake_prob,omitempty" yaml:"fake_prob,omitempty"`
	Warning         string   `json:"warning,omitempty" yaml:"warning,omitempty"` // Backend could not persist the entry
}

// HealthStatus is the backend health probe response
type HealthStatus struct {
	Status string `json:"status" yaml:"status"`
	Device string `json:"device,omitempty" yaml:"device,omitempty"`
}
