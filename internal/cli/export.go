package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RoNRiShaV/dfd/internal/export"
)

var (
	exportName string
	exportDir  string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Download the report document for a file",
	Long: `Export downloads the rendered report document (usually a PDF) and
saves it to the output directory.

The file name is taken from --name with its extension replaced by the
document's type; without --name it is report.pdf.

Example:
  dfd export 42
  dfd export 42 --name cat.jpg --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		dir := a.cfg.Export.OutputDir
		if exportDir != "" {
			dir = exportDir
		}

		client := export.NewClient(a.client, export.NewDirSaver(dir),
			export.WithNotifier(colorNotifier{w: a.errOut}),
			export.WithDefaultFilename(a.cfg.Export.DefaultFilename),
			export.WithLogger(a.log),
		)

		a.progress("⚙️  Exporting %s...\n", args[0])
		path, err := client.Export(commandContext(cmd), args[0], exportName)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.out, "✓ Saved %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportName, "name", "", "suggested file name")
	exportCmd.Flags().StringVar(&exportDir, "output-dir", "", "output directory (overrides export.output_dir)")
}
