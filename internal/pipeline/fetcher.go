package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// ReportSource retrieves one normalized report
type ReportSource interface {
	GetReport(ctx context.Context, id string) (*model.AnalysisReport, error)
}

// ReportFetcher holds the fetch state of one report view. A newer Fetch
// supersedes any outstanding one: the older call's context is cancelled and
// its result is never committed, so the last requested id always wins.
type ReportFetcher struct {
	source ReportSource
	log    *slog.Logger

	mu         sync.Mutex
	state      model.FetchState
	generation uint64
	cancel     context.CancelFunc

	// notifyMu is taken before mu is released so observers see transitions
	// in commit order
	notifyMu sync.Mutex
	onChange func(model.FetchState)
}

// FetcherOption configures a ReportFetcher
type FetcherOption func(*ReportFetcher)

func WithFetcherLogger(log *slog.Logger) FetcherOption {
	return func(f *ReportFetcher) { f.log = log }
}

// WithOnChange registers an observer called on every committed transition.
// The observer may call State but must not call Fetch.
func WithOnChange(fn func(model.FetchState)) FetcherOption {
	return func(f *ReportFetcher) { f.onChange = fn }
}

// NewReportFetcher creates an Idle fetcher
func NewReportFetcher(source ReportSource, opts ...FetcherOption) *ReportFetcher {
	f := &ReportFetcher{
		source: source,
		log:    slog.Default(),
		state:  model.Idle(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// State returns the current state
func (f *ReportFetcher) State() model.FetchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fetch loads the report for id. The state is Loading(id) before the request
// is sent. An empty id is a no-op. If another Fetch starts before this one
// settles, this call commits nothing and returns the state current at that
// moment.
func (f *ReportFetcher) Fetch(ctx context.Context, id string) model.FetchState {
	id = strings.TrimSpace(id)
	if id == "" {
		return f.State()
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	gen := f.generation
	f.cancel = cancel
	f.commitLocked(model.Loading(id))

	report, err := f.source.GetReport(callCtx, id)

	f.mu.Lock()
	if gen != f.generation {
		current := f.state
		f.mu.Unlock()
		f.log.Debug("discarding superseded report fetch", "id", id, "generation", gen, "current", current.ID)
		return current
	}
	f.cancel = nil

	next := model.Loaded(id, report)
	if err != nil {
		next = model.Failed(id, err)
		f.log.Debug("report fetch failed", "id", id, "kind", next.Kind, "error", err)
	}
	f.commitLocked(next)
	return next
}

// commitLocked replaces the state and notifies the observer. It must be
// called with mu held and releases it.
func (f *ReportFetcher) commitLocked(next model.FetchState) {
	f.state = next
	if f.onChange == nil {
		f.mu.Unlock()
		return
	}

	f.notifyMu.Lock()
	f.mu.Unlock()
	defer f.notifyMu.Unlock()
	f.onChange(next)
}
