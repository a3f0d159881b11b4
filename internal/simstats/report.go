// Package simstats formats simulator statistics as aligned name/value
// lines (§9 SUPPLEMENTED FEATURES: "qs-report style stat emission"),
// grounded on the original's globals.h print_stat_line template and its
// callers in main/qs_sim.cpp and main/qs_memory_scheduler.cpp.
package simstats

import (
	"fmt"
	"io"
)

// Report accumulates ordered (name, value) lines, optionally grouped under
// section headers, and writes them as fixed-width aligned text.
type Report struct {
	lines []line
}

type line struct {
	section bool
	name    string
	value   string
}

// Section starts a new named group (e.g. "CLIENT_0", "FACTORY_L1"),
// printed as a bare header line with no value column.
func (r *Report) Section(name string) {
	r.lines = append(r.lines, line{section: true, name: name})
}

// Line appends one "name: value" entry, formatting value with %v (floats
// rendered fixed-point to match the original's std::fixed precision).
func (r *Report) Line(name string, value any) {
	var formatted string
	switch v := value.(type) {
	case float64:
		formatted = fmt.Sprintf("%.8f", v)
	case float32:
		formatted = fmt.Sprintf("%.8f", v)
	default:
		formatted = fmt.Sprintf("%v", v)
	}
	r.lines = append(r.lines, line{name: name, value: formatted})
}

// WriteTo writes every accumulated line to w, left-justifying names in a
// 52-column field and right-justifying values in a 12-column field,
// matching the original's std::setw(52)/std::setw(12) layout.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, l := range r.lines {
		var n int
		var err error
		if l.section {
			n, err = fmt.Fprintf(w, "%s\n", l.name)
		} else {
			n, err = fmt.Fprintf(w, "%-52s : %12s\n", l.name, l.value)
		}
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
