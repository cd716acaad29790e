package domain

import (
	"sort"
	"time"
)

// FileReport is the outcome of extracting one file.
type FileReport struct {
	// Path is the file that was processed.
	Path string `json:"path"`

	// Pages is the number of non-empty pages extracted.
	Pages int `json:"pages"`

	// Method is the strategy that succeeded; empty on failure.
	Method ExtractionMethod `json:"method,omitempty"`

	// Attempts lists the strategies tried, in order, with their outcome.
	Attempts []StrategyAttempt `json:"attempts,omitempty"`

	// Err is set when the file could not be read or extracted.
	Err error `json:"-"`

	// Error is Err's message, kept for JSON output.
	Error string `json:"error,omitempty"`
}

// Fail marks the file as failed with err.
func (r *FileReport) Fail(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// OK reports whether the file yielded at least one page.
func (r FileReport) OK() bool {
	return r.Err == nil && r.Pages > 0
}

// StrategyAttempt records one strategy's outcome for one file.
type StrategyAttempt struct {
	// Strategy is the strategy name.
	Strategy string `json:"strategy"`

	// Pages is the number of non-empty pages produced.
	Pages int `json:"pages"`

	// Error describes the failure, if any.
	Error string `json:"error,omitempty"`
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Root is the directory that was ingested.
	Root string `json:"root"`

	// Files holds per-file outcomes in discovery order.
	Files []FileReport `json:"files"`

	// Pages is the total number of pages extracted.
	Pages int `json:"pages"`

	// Chunks is the number of chunks written to the store.
	Chunks int `json:"chunks"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// Failed returns the files that yielded no pages.
func (r *IngestReport) Failed() []FileReport {
	var out []FileReport
	for i := range r.Files {
		if !r.Files[i].OK() {
			out = append(out, r.Files[i])
		}
	}
	return out
}

// MethodCounts returns how many pages each extraction method produced.
func (r *IngestReport) MethodCounts() map[ExtractionMethod]int {
	counts := make(map[ExtractionMethod]int)
	for i := range r.Files {
		if r.Files[i].OK() {
			counts[r.Files[i].Method] += r.Files[i].Pages
		}
	}
	return counts
}

// Methods returns the methods present in MethodCounts, sorted by name.
func (r *IngestReport) Methods() []ExtractionMethod {
	counts := r.MethodCounts()
	methods := make([]ExtractionMethod, 0, len(counts))
	for m := range counts {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
