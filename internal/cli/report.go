package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/pipeline"
	"github.com/rpattn/assetscan/internal/scanner"
)

func renderReport(w io.Writer, cfg config.Config, report pipeline.Report, stats domain.CatalogStats, stored bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Scan results for the last %d days", cfg.Scan.RecencyDays)))
	if report.SelectionErr != nil {
		printErr(w, "%v", report.SelectionErr)
	}
	if report.Interrupted {
		fmt.Fprintln(w, warningStyle.Render("Scan interrupted before results were recorded"))
	}

	fmt.Fprintf(w, "  Run:                %s\n", mutedStyle.Render(report.RunID.String()))
	fmt.Fprintf(w, "  Assets found:       %d\n", report.Assets)
	fmt.Fprintf(w, "  Stale files:        %d\n", report.Counts[scanner.ExcludedStale])
	fmt.Fprintf(w, "  Sensitive files:    %d\n", report.Counts[scanner.ExcludedSensitive])
	fmt.Fprintf(w, "  Unreadable entries: %d\n", report.Counts[scanner.SkippedError])
	fmt.Fprintf(w, "  Spreadsheets read:  %d (%d failed)\n", report.Workbooks, report.IntrospectionFailed)
	fmt.Fprintf(w, "  Duration:           %s\n", report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond))

	if !stored {
		fmt.Fprintln(w, warningStyle.Render("Results were not saved: the database was unavailable"))
		return
	}

	p := report.Persisted
	fmt.Fprintf(w, "  Recorded:           %d assets, %d sheets, %d sample rows\n", p.AssetsRecorded, p.SheetsRecorded, p.RowsRecorded)
	if p.Failures() > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("  %d writes failed; see %s", p.Failures(), cfg.Log.ErrorFile)))
	}
	fmt.Fprintf(w, "  Catalog totals:     %d assets, %d sheets, %d sample rows, %d runs\n",
		stats.FileAssets, stats.Sheets, stats.RowSamples, stats.AuditRecords)
	if p.AuditRecorded {
		fmt.Fprintln(w, successStyle.Render("Scan results saved to the database."))
	}
}
