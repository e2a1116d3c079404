// Package pipeline runs one scan: enumerate, scan, persist, introspect and
// audit.
package pipeline

import (
	"context"
	"time"

	"github.com/rpattn/assetscan/internal/classifier"
	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/host"
	"github.com/rpattn/assetscan/internal/ingestion"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/scanner"
	"github.com/rpattn/assetscan/internal/spreadsheet"

	"github.com/google/uuid"
)

// VolumeSource lists scan roots. *host.Enumerator implements it.
type VolumeSource interface {
	Volumes(ctx context.Context) []host.Volume
}

// Report summarizes one run.
type Report struct {
	RunID     uuid.UUID
	Roots     []string
	StartedAt time.Time
	EndedAt   time.Time

	// SelectionErr is set when the selection resolved to no roots.
	SelectionErr error
	// Interrupted is set when the context ended before persistence.
	Interrupted bool

	Counts              map[scanner.Status]int
	Assets              int
	// Duplicates counts assets reached again through a nested root.
	Duplicates          int
	Workbooks           int
	IntrospectionFailed int
	Persisted           ingestion.Summary
}

// Runner executes scans sequentially on the calling goroutine.
type Runner struct {
	runID        uuid.UUID
	volumes      VolumeSource
	scanner      *scanner.Scanner
	introspector *spreadsheet.Introspector
	service      *ingestion.Service
	logger       logging.Logger
	address      func(ctx context.Context) string
	now          func() time.Time
}

// NewRunner creates a runner from its parts.
func NewRunner(
	runID uuid.UUID,
	volumes VolumeSource,
	sc *scanner.Scanner,
	introspector *spreadsheet.Introspector,
	service *ingestion.Service,
	logger logging.Logger,
) *Runner {
	return &Runner{
		runID:        runID,
		volumes:      volumes,
		scanner:      sc,
		introspector: introspector,
		service:      service,
		logger:       logger,
		address:      host.Address,
		now:          time.Now,
	}
}

// NewFromConfig wires the enumerator, classifier, scanner and introspector
// described by cfg around service.
func NewFromConfig(cfg config.Config, runID uuid.UUID, service *ingestion.Service, logger logging.Logger) *Runner {
	return NewRunner(
		runID,
		host.NewEnumerator(cfg.Scan.ExcludeFSTypes, logger),
		scanner.New(scanner.Options{
			Extensions:  cfg.Scan.Extensions,
			RecencyDays: cfg.Scan.RecencyDays,
		}, classifier.New(cfg.Scan.SensitiveMarkers), logger),
		spreadsheet.NewIntrospector(cfg.Scan.MinRows, cfg.Scan.SpreadsheetExtensions),
		service,
		logger,
	)
}

// WithAddress replaces the host address lookup used for the audit record.
func (r *Runner) WithAddress(address func(ctx context.Context) string) *Runner {
	r.address = address
	return r
}

// WithClock replaces the time source for the audit end time.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run scans the selection and persists what it finds. Exactly one audit
// record is appended whenever the store is available, including runs with an
// invalid selection or no matching files.
func (r *Runner) Run(ctx context.Context, sel Selection, startedAt time.Time) Report {
	report := Report{
		RunID:     r.runID,
		StartedAt: startedAt,
		Counts:    make(map[scanner.Status]int),
	}

	var volumes []host.Volume
	if sel.Mode != ModePath {
		volumes = r.volumes.Volumes(ctx)
	}
	roots, err := ResolveSelection(volumes, sel)
	if err != nil {
		r.logger.Info("Invalid selection: %v", err)
		r.logger.Error("Invalid selection: %v", err)
		report.SelectionErr = err
	}
	report.Roots = roots

	assets := r.scan(ctx, roots, &report)

	if ctx.Err() != nil {
		report.Interrupted = true
		r.logger.Info("Scan interrupted; %d assets found before stopping were not recorded", len(assets))
	} else {
		report.Persisted = r.persist(ctx, assets, &report)
	}

	report.EndedAt = r.now()
	r.audit(context.WithoutCancel(ctx), &report)
	return report
}

func (r *Runner) scan(ctx context.Context, roots []string, report *Report) []domain.FileAsset {
	var assets []domain.FileAsset
	// Nested mountpoints are reached both from their parent and as their own
	// root; each path is kept once.
	seen := make(map[string]struct{})
	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		r.logger.Info("Scanning %s for data assets...", root)

		result := r.scanner.Scan(ctx, root)
		for status, count := range result.Counts {
			report.Counts[status] += count
		}
		for _, asset := range result.Assets() {
			if _, ok := seen[asset.Path]; ok {
				report.Duplicates++
				continue
			}
			seen[asset.Path] = struct{}{}
			r.logger.Verbose("Found %s", asset.Path)
			assets = append(assets, asset)
		}
	}
	report.Assets = len(assets)
	r.logger.Info("Found %d data assets", len(assets))
	return assets
}

func (r *Runner) persist(ctx context.Context, assets []domain.FileAsset, report *Report) ingestion.Summary {
	if !r.service.Available() {
		return ingestion.Summary{}
	}

	summary := r.service.RecordAssets(ctx, assets)
	for _, asset := range assets {
		if !r.introspector.Supports(asset.Path) {
			continue
		}
		wb, err := r.introspector.IntrospectFile(asset.Path)
		if err != nil {
			r.logger.Error("Error reading spreadsheet %s: %v", asset.Path, err)
			report.IntrospectionFailed++
			continue
		}
		report.Workbooks++
		summary.Add(r.service.RecordWorkbook(ctx, asset.Path, wb))
	}
	return summary
}

func (r *Runner) audit(ctx context.Context, report *Report) {
	if !r.service.Available() {
		return
	}
	record := domain.NewAuditRecord(r.runID, r.address(ctx), report.StartedAt, report.EndedAt)
	if err := r.service.RecordAudit(ctx, record); err != nil {
		return
	}
	report.Persisted.AuditRecorded = true
}
