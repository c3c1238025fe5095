// Package votes keeps a report's community vote tally in sync with the
// backend. The server is the only source of counts: every successful
// response replaces the local tally and nothing is ever incremented locally.
package votes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// Backend is the vote API
type Backend interface {
	GetVotes(ctx context.Context, id string) (model.VoteTally, error)
	CastVote(ctx context.Context, id string, choice model.Choice) (model.VoteTally, error)
}

// Synchronizer holds the last tally the server reported for one report view
type Synchronizer struct {
	backend Backend
	log     *slog.Logger

	mu     sync.Mutex
	id     string
	tally  model.VoteTally
	loaded bool
}

// NewSynchronizer creates a synchronizer with no tally
func NewSynchronizer(backend Backend, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{backend: backend, log: log}
}

// Tally returns the current tally and whether one has been loaded
func (s *Synchronizer) Tally() (model.VoteTally, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally, s.loaded
}

// ID returns the report id the current tally belongs to
func (s *Synchronizer) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// LoadTally fetches the current tally. On failure the previous tally stays
// current and the error is returned.
func (s *Synchronizer) LoadTally(ctx context.Context, id string) (model.VoteTally, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.VoteTally{}, fmt.Errorf("load tally: report id is required")
	}

	tally, err := s.backend.GetVotes(ctx, id)
	if err != nil {
		s.log.Warn("vote tally load failed", "id", id, "kind", model.KindOf(err), "error", err)
		return model.VoteTally{}, err
	}

	return s.adopt(id, tally), nil
}

// CastVote submits choice and adopts the tally the server returns. A failed
// vote leaves the tally unchanged and is not retried.
func (s *Synchronizer) CastVote(ctx context.Context, id string, choice model.Choice) (model.VoteTally, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.VoteTally{}, fmt.Errorf("cast vote: report id is required")
	}
	if _, err := model.ParseChoice(string(choice)); err != nil {
		return model.VoteTally{}, fmt.Errorf("cast vote: %w", err)
	}

	tally, err := s.backend.CastVote(ctx, id, choice)
	if err != nil {
		s.log.Warn("vote submission failed", "id", id, "vote", choice, "error", err)
		return model.VoteTally{}, err
	}

	return s.adopt(id, tally), nil
}

// adopt replaces the tally with the server's. Concurrent loads and votes
// are not ordered: whichever response arrives last wins.
func (s *Synchronizer) adopt(id string, t model.VoteTally) model.VoteTally {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.tally = model.NewVoteTally(t.RealCount, t.FakeCount)
	s.loaded = true
	return s.tally
}
