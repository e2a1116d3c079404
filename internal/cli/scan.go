package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/host"
	"github.com/rpattn/assetscan/internal/ingestion"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/pipeline"
	"github.com/rpattn/assetscan/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrConfig marks configuration failures.
var ErrConfig = errors.New("configuration error")

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan volumes and record data assets",
	Long: `Scan every volume (--mode full), one volume (--mode volume --volume <index|letter|mountpoint>)
or a single directory (--mode path --root <dir>).

Without --mode on an interactive terminal the available volumes are listed and
the scope is asked for. Without a terminal the default is a full scan.`,
	Example: `  assetscan scan --mode full
  assetscan scan --mode volume --volume 2
  assetscan scan --mode path --root ./shared`,
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Scan scope: full, volume or path")
	cmd.Flags().String("volume", "", "Volume to scan in volume mode: 1-based index, drive letter or mountpoint")
	cmd.Flags().String("root", "", "Directory to scan in path mode")
}

func runScan(cmd *cobra.Command, args []string) error {
	startedAt := time.Now()

	cfg, err := config.Load(getConfigDir(cmd))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	verbose := getVerboseFlag(cmd) || cfg.Log.Verbose

	runID := uuid.New()
	logger, err := logging.OpenRunLogger(cfg.Log.ErrorFile, runID.String(), verbose)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sel, err := selectionFromFlags(cmd)
	if err != nil {
		return err
	}
	if sel.Mode == "" {
		sel = chooseSelection(ctx, cmd, cfg, logger)
	}

	service := openService(ctx, cfg, logger)
	defer service.close()

	runner := pipeline.NewFromConfig(cfg, runID, service.Service, logger)
	report := runner.Run(ctx, sel, startedAt)

	stats, err := service.Stats(context.WithoutCancel(ctx))
	if err != nil {
		logger.Error("Error reading catalog totals: %v", err)
	}
	renderReport(cmd.OutOrStdout(), cfg, report, stats, service.Available())
	return nil
}

func selectionFromFlags(cmd *cobra.Command) (pipeline.Selection, error) {
	var sel pipeline.Selection
	var err error
	if sel.Mode, err = cmd.Flags().GetString("mode"); err != nil {
		return sel, err
	}
	if sel.Volume, err = cmd.Flags().GetString("volume"); err != nil {
		return sel, err
	}
	if sel.Root, err = cmd.Flags().GetString("root"); err != nil {
		return sel, err
	}
	if sel.Mode == "" && sel.Root != "" {
		sel.Mode = pipeline.ModePath
	}
	if sel.Mode == "" && sel.Volume != "" {
		sel.Mode = pipeline.ModeVolume
	}
	return sel, nil
}

// chooseSelection prompts on a terminal and defaults to a full scan
// otherwise. A prompt that cannot be answered yields a selection carrying the
// error, so the run still ends with its audit record.
func chooseSelection(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger logging.Logger) pipeline.Selection {
	if !interactive() {
		return pipeline.Selection{Mode: pipeline.ModeFull}
	}
	volumes := host.NewEnumerator(cfg.Scan.ExcludeFSTypes, logger).Volumes(ctx)
	sel, err := promptSelection(cmd.InOrStdin(), cmd.OutOrStdout(), volumes)
	if err != nil {
		logger.Error("Error reading selection: %v", err)
		return pipeline.Selection{Err: err}
	}
	return sel
}

// storeService is an ingestion service plus the store handle behind it.
type storeService struct {
	*ingestion.Service
	store *repository.Store
}

// openService connects to the configured store. When the store is
// unreachable the failure is logged once and the returned service writes
// nothing.
func openService(ctx context.Context, cfg config.Config, logger logging.Logger) storeService {
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		logger.Info("Database unavailable; results will not be recorded")
		logger.Error("Error connecting to %s store: %v", cfg.Store.Driver, err)
		return storeService{Service: ingestion.NewService(nil, nil, logger)}
	}
	return storeService{
		Service: ingestion.NewService(store.Assets, store.Audits, logger),
		store:   store,
	}
}

func (s storeService) close() {
	if s.store != nil {
		s.store.Close()
	}
}

func printErr(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf(format, args...)))
}
