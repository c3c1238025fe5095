package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		h, err := a.client.Health(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("backend %s unhealthy: %w", a.client.BaseURL(), err)
		}
		return a.renderer.RenderHealth(h)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
