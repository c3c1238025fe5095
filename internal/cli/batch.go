package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/pipeline"
	"github.com/RoNRiShaV/dfd/internal/score"
	"github.com/RoNRiShaV/dfd/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Retrieve many reports from a file of ids in parallel",
	Long: `Batch retrieves reports for every id listed in a file:
- One id per line; blank lines and lines starting with # are skipped
- Duplicate ids are fetched once
- Requests are spread over a worker pool and rate limited per host

Example:
  dfd batch ids.txt
  dfd batch ids.txt --concurrency 10 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchEntry is one line of structured batch output
type batchEntry struct {
	ID         string                `json:"id" yaml:"id"`
	Status     string                `json:"status" yaml:"status"`
	Kind       model.ErrorKind       `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error      string                `json:"error,omitempty" yaml:"error,omitempty"`
	Report     *model.AnalysisReport `json:"report,omitempty" yaml:"report,omitempty"`
	Assessment *model.Assessment     `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	workers := a.cfg.Concurrency.Workers
	if concurrency > 0 {
		workers = concurrency
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), batchTimeout)
	defer cancel()

	fmt.Fprintf(a.errOut, "\n")
	fmt.Fprintf(a.errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(a.errOut, "  dfd Batch Retrieval\n")
	fmt.Fprintf(a.errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(a.errOut, "\n")
	fmt.Fprintf(a.errOut, "  Input file:   %s\n", file)
	fmt.Fprintf(a.errOut, "  Backend:      %s\n", a.client.BaseURL())
	fmt.Fprintf(a.errOut, "  Workers:      %d\n", workers)
	fmt.Fprintf(a.errOut, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(a.errOut, "\n")

	processor := worker.NewBatchProcessor(func() worker.Fetcher {
		return pipeline.NewReportFetcher(a.client, pipeline.WithFetcherLogger(a.log))
	}, workers)

	var progressMu sync.Mutex
	processor.OnResult(func(r *worker.FetchResult) {
		progressMu.Lock()
		defer progressMu.Unlock()
		if err := r.GetError(); err != nil {
			fmt.Fprintf(a.errOut, "✗ %s: %v\n", r.ID, err)
			return
		}
		a.progress("✓ %s\n", r.ID)
	})

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	scorer := score.NewScorer()
	entries := make([]batchEntry, 0, len(results))
	failures := 0
	for _, r := range results {
		entry := batchEntry{ID: r.ID, Status: r.State.Status.String()}
		if err := r.GetError(); err != nil {
			failures++
			entry.Kind = r.State.Kind
			entry.Error = err.Error()
		} else if r.State.Report != nil {
			assessment := scorer.Calculate(r.State.Report, nil)
			entry.Report = r.State.Report
			entry.Assessment = &assessment
		}
		entries = append(entries, entry)
	}

	if err := renderBatch(a, entries); err != nil {
		return err
	}

	fmt.Fprintf(a.errOut, "\n")
	fmt.Fprintf(a.errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(a.errOut, "  Batch Complete\n")
	fmt.Fprintf(a.errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(a.errOut, "\n")
	fmt.Fprintf(a.errOut, "  Total:     %d ids\n", len(results))
	fmt.Fprintf(a.errOut, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(a.errOut, "  Failures:  %d\n", failures)
	fmt.Fprintf(a.errOut, "\n")

	if failures > 0 && failures == len(results) {
		return fmt.Errorf("all %d reports failed", failures)
	}
	return nil
}

func renderBatch(a *app, entries []batchEntry) error {
	if a.renderer.Structured() {
		return a.renderer.Encode(entries)
	}

	for _, e := range entries {
		if e.Error != "" || e.Assessment == nil {
			fmt.Fprintf(a.out, "%-24s  %-8s  %s\n", e.ID, e.Status, e.Kind)
			continue
		}
		fmt.Fprintf(a.out, "%-24s  %-8s  %s (authenticity %d%%)\n",
			e.ID, e.Status, e.Assessment.Verdict, e.Assessment.AuthenticityPercent)
	}
	return nil
}
