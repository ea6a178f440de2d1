// Package errors defines the error taxonomy of the transpilation pipeline:
// transpile failures that become fallback modules, resolution warnings that
// are logged and proceed, and the collector that feeds the browser overlay.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// TranspileError represents a failure reported by the syntax-lowering
// compiler for a single source file.
type TranspileError struct {
	File      string
	Line      int
	Column    int
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// Severity represents the severity of an error
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (te *TranspileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", te.File, te.Line, te.Column, te.Severity, te.Message)
}

// ResolutionWarning is raised when a package entry point is ambiguous and a
// best-guess candidate was used. Non-fatal: the rewrite proceeds.
type ResolutionWarning struct {
	Specifier string
	Candidate string
	File      string
}

func (rw *ResolutionWarning) Error() string {
	return fmt.Sprintf("%s: ambiguous entry for %q, using %s", rw.File, rw.Specifier, rw.Candidate)
}

// Collector collects transpile errors across requests for the overlay and
// the build status endpoint.
type Collector struct {
	errors []TranspileError
	mutex  sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{errors: make([]TranspileError, 0)}
}

// Add adds a transpile error to the collector
func (c *Collector) Add(err TranspileError) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	err.Timestamp = time.Now()
	c.errors = append(c.errors, err)
}

// Errors returns a copy of all collected errors.
func (c *Collector) Errors() []TranspileError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]TranspileError, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors) > 0
}

// Clear clears all errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = c.errors[:0]
}

// ClearFile drops errors recorded for a specific file, called when the
// file changes and will be retranspiled.
func (c *Collector) ClearFile(file string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	kept := c.errors[:0]
	for _, err := range c.errors {
		if err.File != file {
			kept = append(kept, err)
		}
	}
	c.errors = kept
}

// ErrorsForFile returns errors for a specific file
func (c *Collector) ErrorsForFile(file string) []TranspileError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var fileErrors []TranspileError
	for _, err := range c.errors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}
