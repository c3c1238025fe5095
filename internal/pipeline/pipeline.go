package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/score"
)

// TallySource loads the vote tally for a report
type TallySource interface {
	LoadTally(ctx context.Context, id string) (model.VoteTally, error)
}

// ReportView is everything shown for one report
type ReportView struct {
	Report     *model.AnalysisReport `json:"report" yaml:"report"`
	Votes      *model.VoteTally      `json:"votes,omitempty" yaml:"votes,omitempty"`
	VotesError string                `json:"votes_error,omitempty" yaml:"votes_error,omitempty"`
	Assessment model.Assessment      `json:"assessment" yaml:"assessment"`
}

// Pipeline assembles report views from a fetcher and an optional tally source
type Pipeline struct {
	fetcher *ReportFetcher
	votes   TallySource
	scorer  *score.Scorer
	log     *slog.Logger
}

// NewPipeline creates a pipeline. votes may be nil.
func NewPipeline(fetcher *ReportFetcher, votes TallySource, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		fetcher: fetcher,
		votes:   votes,
		scorer:  score.NewScorer(),
		log:     log,
	}
}

// View fetches the report and its tally concurrently. A tally failure does
// not fail the view; it is recorded in VotesError.
func (p *Pipeline) View(ctx context.Context, id string) (*ReportView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("report id is required")
	}

	var (
		wg       sync.WaitGroup
		tally    model.VoteTally
		tallyErr error
	)
	if p.votes != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tally, tallyErr = p.votes.LoadTally(ctx, id)
		}()
	}

	state := p.fetcher.Fetch(ctx, id)
	wg.Wait()

	switch {
	case state.Status == model.StatusFailed && state.ID == id:
		return nil, state.Err
	case state.Status != model.StatusLoaded || state.ID != id:
		return nil, fmt.Errorf("fetch %s: superseded (state %s for %q)", id, state.Status, state.ID)
	}

	view := &ReportView{Report: state.Report}
	if p.votes != nil {
		if tallyErr != nil {
			p.log.Warn("vote tally unavailable", "id", id, "error", tallyErr)
			view.VotesError = tallyErr.Error()
		} else {
			view.Votes = &tally
		}
	}
	view.Assessment = p.scorer.Calculate(view.Report, view.Votes)
	return view, nil
}
