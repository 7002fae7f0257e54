// Package buildreport accumulates the non-fatal errors a build run
// encounters into a single structured report, instead of letting them
// scroll by only as log lines. main.go prints the number of recorded
// entries at the end of a run.
package buildreport

import (
	"fmt"
	"sync"
	"time"
)

// Severity classifies a reported entry by error taxonomy.
type Severity string

const (
	SeverityWarn Severity = "warn"
	SeverityInfo Severity = "info"
)

// Entry is one non-fatal event recorded during a build.
type Entry struct {
	Severity  Severity  `json:"severity"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Report accumulates entries across every goroutine of a build run. Safe
// for concurrent use by the bounded worker pools in internal/cache,
// internal/pipeline, and internal/objectstore.
type Report struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Report.
func New() *Report {
	return &Report{}
}

// Add records one non-fatal entry.
func (r *Report) Add(severity Severity, component, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Severity:  severity,
		Component: component,
		Message:   message,
		Time:      time.Now(),
	})
}

// Warnf records a warning-level entry for component.
func (r *Report) Warnf(component, format string, args ...any) {
	r.Add(SeverityWarn, component, fmt.Sprintf(format, args...))
}

// Entries returns a snapshot copy of every recorded entry, oldest first.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports how many entries have been recorded.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// CountBySeverity reports how many recorded entries match severity.
func (r *Report) CountBySeverity(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}
