package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/pipeline"
	"github.com/RoNRiShaV/dfd/internal/votes"
)

var noVotes bool

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Show the analysis report for an uploaded file",
	Long: `Report retrieves the analysis of a previously uploaded file:
- Authenticity and tamper scores with the detector's verdict
- Real/fake probabilities
- EXIF metadata, heatmap and reverse image matches
- The community vote tally

Example:
  dfd report cat.jpg
  dfd report 42 -o json
  dfd report 42 --no-votes`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&noVotes, "no-votes", false, "do not load the community vote tally")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	fetcher := pipeline.NewReportFetcher(a.client,
		pipeline.WithFetcherLogger(a.log),
		pipeline.WithOnChange(func(s model.FetchState) {
			a.progress("⚙️  %s %s\n", s.Status, s.ID)
		}),
	)

	var tally pipeline.TallySource
	if !noVotes {
		tally = votes.NewSynchronizer(a.client, a.log)
	}

	view, err := pipeline.NewPipeline(fetcher, tally, a.log).View(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("report %s: %w", args[0], err)
	}
	if view.VotesError != "" && !a.renderer.Structured() {
		a.warn("community votes unavailable: %s", view.VotesError)
	}

	return a.renderer.RenderView(view)
}
