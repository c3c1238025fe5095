// Package history serves the public report listing and keeps the
// client-local list of recent uploads.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// Lister fetches the public listing
type Lister interface {
	ListHistory(ctx context.Context) ([]model.HistoryEntry, error)
}

// Gateway reads the public history listing on behalf of the user
type Gateway struct {
	lister Lister
	log    *slog.Logger
}

// NewGateway creates a history gateway
func NewGateway(lister Lister, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{lister: lister, log: log}
}

// ListHistory returns the public listing. In privacy mode it returns an empty
// list without touching the network. A failed request also yields an empty
// list; the returned error is then a warning the caller may show, not a
// reason to abort.
func (g *Gateway) ListHistory(ctx context.Context, privacy bool) ([]model.HistoryEntry, error) {
	if privacy {
		g.log.Debug("history skipped in privacy mode")
		return []model.HistoryEntry{}, nil
	}

	entries, err := g.lister.ListHistory(ctx)
	if err != nil {
		g.log.Warn("history unavailable", "kind", model.KindOf(err), "error", err)
		return []model.HistoryEntry{}, fmt.Errorf("history unavailable: %w", err)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}
