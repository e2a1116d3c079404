// Package classifier decides whether a file carries a sensitive marker in its
// name or text content.
package classifier

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Classifier matches lower-cased markers against file names and content.
// Not safe for concurrent use.
type Classifier struct {
	markers []string
	lower   cases.Caser
}

// New creates a classifier. Markers are lower-cased; blank markers are dropped
// since they would match every file.
func New(markers []string) *Classifier {
	lower := cases.Lower(language.Und)
	normalized := make([]string, 0, len(markers))
	for _, marker := range markers {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		normalized = append(normalized, lower.String(marker))
	}
	return &Classifier{markers: normalized, lower: lower}
}

// Markers returns the normalized marker list.
func (c *Classifier) Markers() []string {
	return append([]string(nil), c.markers...)
}

// IsSensitive reads the whole file at path and reports whether its base name
// or content contains any marker. A read error is returned together with
// false; callers treat it as not sensitive.
func (c *Classifier) IsSensitive(fsys billy.Filesystem, path string) (bool, error) {
	if len(c.markers) == 0 {
		return false, nil
	}

	name := filepath.Base(path)
	if _, ok := c.matchText(c.lower.String(name)); ok {
		return true, nil
	}

	content, err := readAll(fsys, path)
	if err != nil {
		return false, err
	}
	_, ok := c.Match(name, content)
	return ok, nil
}

// Match returns the first marker found in name or content. Invalid UTF-8 in
// content is dropped before comparison.
func (c *Classifier) Match(name string, content []byte) (string, bool) {
	if marker, ok := c.matchText(c.lower.String(name)); ok {
		return marker, true
	}
	text := c.lower.String(strings.ToValidUTF8(string(content), ""))
	return c.matchText(text)
}

func (c *Classifier) matchText(text string) (string, bool) {
	for _, marker := range c.markers {
		if strings.Contains(text, marker) {
			return marker, true
		}
	}
	return "", false
}

func readAll(fsys billy.Filesystem, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}
