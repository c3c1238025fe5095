package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/votes"
)

// votesCmd represents the votes command
var votesCmd = &cobra.Command{
	Use:   "votes <id>",
	Short: "Show the community vote tally for a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		tally, err := votes.NewSynchronizer(a.client, a.log).LoadTally(commandContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("votes %s: %w", args[0], err)
		}
		return a.renderer.RenderTally(args[0], tally)
	},
}

// voteCmd represents the vote command
var voteCmd = &cobra.Command{
	Use:   "vote <id> <real|fake>",
	Short: "Cast a community vote on a report",
	Long: `Vote submits your opinion on whether the analysed media is real or fake
and prints the tally the backend reports afterwards.

Votes are not deduplicated: voting twice counts twice.

Example:
  dfd vote 42 fake`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice, err := model.ParseChoice(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		tally, err := votes.NewSynchronizer(a.client, a.log).CastVote(commandContext(cmd), args[0], choice)
		if err != nil {
			return fmt.Errorf("vote %s: %w", args[0], err)
		}
		return a.renderer.RenderTally(args[0], tally)
	},
}

func init() {
	rootCmd.AddCommand(votesCmd)
	rootCmd.AddCommand(voteCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
