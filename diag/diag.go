/*
Package diag implements the structured diagnostic channel shared by every
stage of the compiler pipeline (§6, §7 of the specification).

Diagnostics carry a severity, a source path (which may be the sentinel
"<memory>" for in-memory sources), a byte range, and a message. The
pipeline never panics on a recoverable problem: producers append a
Diagnostic to a Collector and, for fatal kinds, also return an error so
the caller can stop.
*/
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.diag")
}

// Severity classifies a Diagnostic.
type Severity int

const (
	// Warn indicates a non-fatal issue; the pipeline proceeds.
	Warn Severity = iota
	// Error indicates a fatal issue for the item that produced it.
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Kind names the category of a Diagnostic, following §7's error-kind list.
// Kinds are not Go types: every Diagnostic is the same struct, tagged with
// a Kind for reporting and for tests that want to assert "this failed for
// the right reason".
type Kind string

const (
	KindStructural  Kind = "structural"   // missing required field, impossible axis arity
	KindReference   Kind = "reference"    // undefined glyph/group/mark-class name
	KindVariation   Kind = "variation"    // singular master system, delta overflow
	KindFeatureSyn  Kind = "feature-syn"  // feature-file parse error carried on the AST
	KindCompile     Kind = "compile"      // duplicate lookup name, mark-class overlap, offset overflow
	KindUnspecified Kind = "unspecified"
)

// Range is a byte span within a source. Start == End denotes a point
// diagnostic (e.g. "file is missing a required field").
type Range struct {
	Start, End int
}

// Diagnostic is one structured record as described in §6.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Path     string // source path, or "<memory>"
	Range    Range
	Message  string
}

// MemoryPath is used for diagnostics whose source has no file path.
const MemoryPath = "<memory>"

// String renders a diagnostic as "path:byte-range: severity: message", the
// user-visible line format mandated by §7.
func (d Diagnostic) String() string {
	path := d.Path
	if path == "" {
		path = MemoryPath
	}
	return fmt.Sprintf("%s:%d-%d: %s: %s", path, d.Range.Start, d.Range.End, d.Severity, d.Message)
}

// Errorf builds an Error-severity Diagnostic.
func Errorf(kind Kind, path string, rng Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Path: path, Range: rng, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a Warn-severity Diagnostic.
func Warnf(kind Kind, path string, rng Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warn, Kind: kind, Path: path, Range: rng, Message: fmt.Sprintf(format, args...)}
}

// Collector is an append-only, concurrency-safe sink for diagnostics,
// shared across work items per §5 ("diagnostic collection... append-only").
// Collectors record a monotonically increasing completion sequence number
// per entry, so that final reporting can sort by "order completed", as
// required by §7 ("in the order errors were completed, not started").
type Collector struct {
	mu      sync.Mutex
	entries []entry
	seq     int
}

type entry struct {
	seq int
	d   Diagnostic
}

// Add appends a diagnostic, stamping it with the next completion sequence
// number. Safe for concurrent use.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	c.seq++
	c.entries = append(c.entries, entry{seq: c.seq, d: d})
	c.mu.Unlock()
	if d.Severity == Error {
		tracer().Errorf(d.String())
	} else {
		tracer().Infof(d.String())
	}
}

// AddAll appends every diagnostic in ds, preserving their relative order.
func (c *Collector) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		c.Add(d)
	}
}

// All returns every collected diagnostic, ordered by completion sequence.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entry, len(c.entries))
	copy(out, c.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	ds := make([]Diagnostic, len(out))
	for i, e := range out {
		ds[i] = e.d
	}
	return ds
}

// HasErrors reports whether any collected diagnostic is Error severity.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.d.Severity == Error {
			return true
		}
	}
	return false
}

// Lines renders every diagnostic via String, in completion order — the
// exact user-visible failure format mandated by §7.
func (c *Collector) Lines() []string {
	all := c.All()
	lines := make([]string, len(all))
	for i, d := range all {
		lines[i] = d.String()
	}
	return lines
}
