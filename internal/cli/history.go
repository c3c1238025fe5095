package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/history"
)

var (
	historyPrivacy bool
	recentClear    bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List publicly shared reports",
	Long: `History lists the reports the backend shares publicly, with their
community vote counts.

With --privacy nothing is requested and the list is empty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		entries, warning := history.NewGateway(a.client, a.log).ListHistory(commandContext(cmd), historyPrivacy)
		if warning != nil {
			a.warn("%v", warning)
		}
		return a.renderer.RenderHistory(entries)
	},
}

// recentCmd represents the recent command
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List your recent uploads",
	Long: `Recent shows the uploads made from this machine, most recent first.
Uploads made with --privacy are never recorded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		list := a.recentList()
		if recentClear {
			if err := list.Clear(); err != nil {
				return fmt.Errorf("clear recent uploads: %w", err)
			}
			a.progress("✓ Cleared recent uploads\n")
		}

		entries, err := list.Entries()
		if err != nil {
			return err
		}
		return a.renderer.RenderRecent(entries)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(recentCmd)

	historyCmd.Flags().BoolVar(&historyPrivacy, "privacy", false, "privacy mode: do not contact the backend")
	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "clear the list before showing it")
}
