// Package report carries the diagnostics produced while converting between
// Android resources and gettext catalogs.
//
// Conversions never log directly. Every recoverable problem (a duplicate
// resource name, an unknown escape sequence, a plural count mismatch, ...) is
// handed to a Sink together with a Severity, and the conversion goes on.
package report

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Info is purely informational (e.g. a skipped resource reference).
	Info Severity = iota
	// Warning marks data that was dropped or degraded.
	Warning
	// Error marks data that could not be converted at all.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Message
}

// Sink receives diagnostics. Implementations must not abort the conversion.
type Sink interface {
	Report(message string, severity Severity)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(message string, severity Severity)

// Report calls f.
func (f SinkFunc) Report(message string, severity Severity) { f(message, severity) }

// Discard is a Sink that drops everything.
var Discard Sink = SinkFunc(func(string, Severity) {})

// Collector records diagnostics in the order they were reported.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report appends a diagnostic.
func (c *Collector) Report(message string, severity Severity) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Severity: severity, Message: message})
}

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(severity Severity) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// HasErrors reports whether at least one error-level diagnostic was recorded.
func (c *Collector) HasErrors() bool { return c.Count(Error) > 0 }

// Messages returns the messages of all diagnostics with the given severity.
func (c *Collector) Messages(severity Severity) []string {
	var out []string
	for _, d := range c.Diagnostics {
		if d.Severity == severity {
			out = append(out, d.Message)
		}
	}
	return out
}

// String renders all diagnostics, one per line.
func (c *Collector) String() string {
	lines := make([]string, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Tee forwards every diagnostic to all sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(message string, severity Severity) {
		for _, s := range sinks {
			s.Report(message, severity)
		}
	})
}

// Log returns a Sink writing diagnostics to logger.
func Log(logger zerolog.Logger) Sink {
	return SinkFunc(func(message string, severity Severity) {
		var ev *zerolog.Event
		switch severity {
		case Info:
			ev = logger.Info()
		case Warning:
			ev = logger.Warn()
		default:
			ev = logger.Error()
		}
		ev.Msg(message)
	})
}
