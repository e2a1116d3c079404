// Package scanner walks a directory tree and decides, file by file, which
// files qualify as data assets.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpattn/assetscan/internal/classifier"
	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/logging"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Status is the verdict for one visited file.
type Status int

const (
	// Included files passed every filter.
	Included Status = iota
	// ExcludedExtension files did not match any configured extension. They
	// are counted but not kept in Result.Outcomes.
	ExcludedExtension
	// ExcludedStale files were neither modified nor accessed recently.
	ExcludedStale
	// ExcludedSensitive files carry a sensitive marker in name or content.
	ExcludedSensitive
	// SkippedError files or directories could not be inspected.
	SkippedError
)

func (s Status) String() string {
	switch s {
	case Included:
		return "included"
	case ExcludedExtension:
		return "excluded_extension"
	case ExcludedStale:
		return "excluded_stale"
	case ExcludedSensitive:
		return "excluded_sensitive"
	case SkippedError:
		return "skipped_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome records what happened to one candidate path.
type Outcome struct {
	Path   string
	Status Status
	Reason string
	Err    error
	// Asset is set for Included outcomes.
	Asset domain.FileAsset
}

// Result aggregates the outcomes of one scan.
type Result struct {
	Root     string
	Outcomes []Outcome
	// Counts holds per-status totals, ExcludedExtension included.
	Counts map[Status]int
	// Err is set when the walk stopped early, e.g. on context cancellation.
	Err error
}

// Assets returns the included assets in visit order.
func (r Result) Assets() []domain.FileAsset {
	assets := make([]domain.FileAsset, 0, r.Counts[Included])
	for _, outcome := range r.Outcomes {
		if outcome.Status == Included {
			assets = append(assets, outcome.Asset)
		}
	}
	return assets
}

func (r *Result) add(outcome Outcome) {
	r.Counts[outcome.Status]++
	if outcome.Status != ExcludedExtension {
		r.Outcomes = append(r.Outcomes, outcome)
	}
}

// Options configures the filters.
type Options struct {
	Extensions  []string
	RecencyDays int
}

// Scanner applies the extension, recency and sensitivity filters to every
// regular file below a root.
type Scanner struct {
	extensions  []string
	recencyDays int
	classifier  *classifier.Classifier
	logger      logging.Logger
	now         func() time.Time
}

// New creates a scanner.
func New(opts Options, c *classifier.Classifier, logger logging.Logger) *Scanner {
	extensions := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			extensions = append(extensions, ext)
		}
	}
	return &Scanner{
		extensions:  extensions,
		recencyDays: opts.RecencyDays,
		classifier:  c,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source used by the recency filter.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Scan walks root on the host filesystem.
func (s *Scanner) Scan(ctx context.Context, root string) Result {
	return s.ScanFS(ctx, osfs.New(root), root)
}

// ScanFS walks fsys from its root. Asset paths are reported joined onto
// display, normally the directory fsys is rooted at.
//
// Errors on individual files or directories are logged and recorded as
// SkippedError; an unreadable directory only loses its own subtree.
func (s *Scanner) ScanFS(ctx context.Context, fsys billy.Filesystem, display string) Result {
	result := Result{Root: display, Counts: make(map[Status]int)}
	now := s.now()

	err := util.Walk(fsys, ".", func(rel string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		path := filepath.Join(display, rel)
		if err != nil {
			s.logger.Error("Error accessing %s: %v", path, err)
			result.add(Outcome{Path: path, Status: SkippedError, Reason: "stat failed", Err: err})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Links to files are followed; links to directories are not.
			target, err := fsys.Stat(rel)
			if err != nil {
				s.logger.Error("Error accessing %s: %v", path, err)
				result.add(Outcome{Path: path, Status: SkippedError, Reason: "broken link", Err: err})
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		result.add(s.evaluate(fsys, rel, path, info, now))
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		result.Err = err
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("Error walking %s: %v", display, err)
		}
	}

	s.logger.Verbose("Scanned %s: %d included, %d stale, %d sensitive, %d errors",
		display, result.Counts[Included], result.Counts[ExcludedStale],
		result.Counts[ExcludedSensitive], result.Counts[SkippedError])
	return result
}

func (s *Scanner) evaluate(fsys billy.Filesystem, rel, path string, info os.FileInfo, now time.Time) Outcome {
	if !s.matchesExtension(info.Name()) {
		return Outcome{Path: path, Status: ExcludedExtension}
	}

	times := statTimes(info)
	if !Recent(now, times.modified, times.accessed, s.recencyDays) {
		return Outcome{Path: path, Status: ExcludedStale, Reason: fmt.Sprintf("untouched for more than %d days", s.recencyDays)}
	}

	if s.classifier != nil {
		sensitive, err := s.classifier.IsSensitive(fsys, rel)
		if err != nil {
			// Unreadable content is treated as not sensitive.
			s.logger.Error("Error reading file %s: %v", path, err)
		}
		if sensitive {
			return Outcome{Path: path, Status: ExcludedSensitive, Reason: "sensitive marker"}
		}
	}

	asset := domain.NewFileAsset(path, info.Size(), times.modified, times.accessed, times.created)
	return Outcome{Path: path, Status: Included, Asset: asset}
}

func (s *Scanner) matchesExtension(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Recent reports whether modified or accessed lies within days of now. Ages
// are counted in whole days, truncated.
func Recent(now, modified, accessed time.Time, days int) bool {
	return ageInDays(now, modified) <= days || ageInDays(now, accessed) <= days
}

func ageInDays(now, t time.Time) int {
	return int(now.Sub(t) / (24 * time.Hour))
}

type fileTimes struct {
	modified time.Time
	accessed time.Time
	created  time.Time
}
