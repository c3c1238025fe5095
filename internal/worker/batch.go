package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// Fetcher retrieves one report and reports the resulting state
type Fetcher interface {
	Fetch(ctx context.Context, id string) model.FetchState
}

// FetchJob retrieves a single report id
type FetchJob struct {
	Index   int
	ID      string
	Fetcher Fetcher
}

// Execute runs the fetch
func (j *FetchJob) Execute(ctx context.Context) Result {
	return &FetchResult{
		Index: j.Index,
		ID:    j.ID,
		State: j.Fetcher.Fetch(ctx, j.ID),
	}
}

// FetchResult is the outcome of one batch entry
type FetchResult struct {
	Index int
	ID    string
	State model.FetchState
}

// GetError returns the failure cause, if any
func (r *FetchResult) GetError() error {
	if r.State.Status == model.StatusFailed {
		return r.State.Err
	}
	return nil
}

// BatchProcessor retrieves many reports concurrently. Each job gets its own
// fetcher so entries never supersede one another.
type BatchProcessor struct {
	newFetcher  func() Fetcher
	concurrency int
	onResult    func(*FetchResult)
}

// NewBatchProcessor creates a batch processor. newFetcher is called once per id.
func NewBatchProcessor(newFetcher func() Fetcher, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		newFetcher:  newFetcher,
		concurrency: concurrency,
	}
}

// OnResult registers a callback invoked as each entry completes
func (b *BatchProcessor) OnResult(fn func(*FetchResult)) {
	b.onResult = fn
}

// ProcessIDs fetches every id and returns results in input order. Entries
// that never ran because ctx was cancelled are reported as failed.
func (b *BatchProcessor) ProcessIDs(ctx context.Context, ids []string) []*FetchResult {
	if len(ids) == 0 {
		return []*FetchResult{}
	}

	jobs := make([]Job, len(ids))
	for i, id := range ids {
		jobs[i] = &FetchJob{Index: i, ID: id, Fetcher: b.newFetcher()}
	}

	pool := NewPool(ctx, b.concurrency)
	defer pool.Shutdown()

	ordered := make([]*FetchResult, len(ids))
	for _, result := range pool.Run(jobs) {
		r := result.(*FetchResult)
		ordered[r.Index] = r
		if b.onResult != nil {
			b.onResult(r)
		}
	}

	for i, r := range ordered {
		if r == nil {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			ordered[i] = &FetchResult{
				Index: i,
				ID:    ids[i],
				State: model.Failed(ids[i], fmt.Errorf("batch aborted: %w", cause)),
			}
		}
	}

	return ordered
}

// ProcessFile reads ids from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*FetchResult, error) {
	ids, err := ReadIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read ids: %w", err)
	}

	return b.ProcessIDs(ctx, ids), nil
}

// ReadIDsFromFile reads report ids, one per line. Blank lines and lines
// starting with # are skipped; duplicates keep their first position.
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
