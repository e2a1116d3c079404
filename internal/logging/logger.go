// Package logging routes console progress and the file-based error log.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the logging surface every component depends on.
type Logger interface {
	// Verbose logs diagnostics, shown only when verbose output is enabled.
	Verbose(format string, args ...interface{})
	// Info logs user-facing progress.
	Info(format string, args ...interface{})
	// Error records a failure in the error log.
	Error(format string, args ...interface{})
}

// RunLogger writes progress to a console writer and errors to an error log.
// Safe for concurrent use.
type RunLogger struct {
	console  io.Writer
	errorLog *log.Logger
	closer   io.Closer
	verbose  bool
	mu       sync.Mutex
}

// NewRunLogger creates a logger writing progress to console and errors to errors.
// prefix is prepended to every error line, typically the run id.
func NewRunLogger(console, errors io.Writer, prefix string, verbose bool) *RunLogger {
	if prefix != "" {
		prefix = "[" + prefix + "] "
	}
	return &RunLogger{
		console:  console,
		errorLog: log.New(errors, prefix, log.LstdFlags|log.Lmsgprefix),
		verbose:  verbose,
	}
}

// OpenRunLogger appends errors to the file at path, creating it if needed.
func OpenRunLogger(path, prefix string, verbose bool) (*RunLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log %s: %w", path, err)
	}
	logger := NewRunLogger(os.Stdout, file, prefix, verbose)
	logger.closer = file
	return logger, nil
}

// Verbose implements Logger.
func (l *RunLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "[VERBOSE] "+format+"\n", args...)
}

// Info implements Logger.
func (l *RunLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, format+"\n", args...)
}

// Error implements Logger. The message goes to the error log only.
func (l *RunLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf("ERROR - "+format, args...)
}

// Close releases the error log file, if the logger opened one.
func (l *RunLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NullLogger discards everything.
type NullLogger struct{}

// NewNullLogger creates a logger that drops all messages.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}
func (l *NullLogger) Info(format string, args ...interface{})    {}
func (l *NullLogger) Error(format string, args ...interface{})   {}

var (
	_ Logger = (*RunLogger)(nil)
	_ Logger = (*NullLogger)(nil)
)
