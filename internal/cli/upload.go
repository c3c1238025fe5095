package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/upload"
)

var uploadPrivacy bool

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image for analysis",
	Long: `Upload sends a .png, .jpg or .jpeg image to the backend and prints the
detector's verdict.

Unless --privacy is set the backend may list the upload publicly and it
is added to your recent uploads.

Example:
  dfd upload ./cat.jpg
  dfd upload ./cat.jpg --privacy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		a.progress("⚙️  Uploading %s...\n", args[0])
		result, err := upload.NewUploader(a.client, a.recentList(), a.log).Upload(commandContext(cmd), args[0], uploadPrivacy)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		return a.renderer.RenderUpload(result)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().BoolVar(&uploadPrivacy, "privacy", false, "privacy mode: keep the upload out of public and local history")
}
