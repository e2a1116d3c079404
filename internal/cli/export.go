package cli

import (
	"fmt"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/export"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the recorded file assets to a CSV file",
	Example: `  assetscan export --dir ./exports
  assetscan export --dir ./exports --name finance-share`,
	SilenceUsage: true,
	RunE:         runExport,
}

func init() {
	exportCmd.Flags().String("dir", ".", "Directory the CSV file is written to")
	exportCmd.Flags().String("name", "file-assets", "Base name of the CSV file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(getConfigDir(cmd))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	dir, _ := cmd.Flags().GetString("dir")
	name, _ := cmd.Flags().GetString("name")

	store, err := repository.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer store.Close()

	logger := logging.NewRunLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), "export", getVerboseFlag(cmd))
	result, err := export.NewService(store.Assets, logger, export.WithExportDirectory(dir)).
		ExportAssets(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
		fmt.Sprintf("Exported %d assets to %s", result.RowsExported, result.Path)))
	return nil
}
