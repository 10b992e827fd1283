/*
Copyright © 2013 the fwxgrid authors.
This file is part of fwxgrid.

fwxgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fwxgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fwxgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package weather

import "fmt"

// Warning is one recoverable problem noticed during import (spec.md §9
// Design Notes, "Exception-for-control-flow": a side-channel instead of
// aborting on the first issue).
type Warning struct {
	Line int
	Msg  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}

// Validator accumulates non-fatal warnings raised while importing or
// configuring a stream, so the caller can inspect them after a successful
// operation instead of only learning about the first one.
type Validator struct {
	warnings []Warning
}

// Warn records a warning at the given source line (0 when not applicable).
func (v *Validator) Warn(line int, format string, args ...interface{}) {
	v.warnings = append(v.warnings, Warning{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// Warnings returns every warning recorded so far.
func (v *Validator) Warnings() []Warning {
	out := make([]Warning, len(v.warnings))
	copy(out, v.warnings)
	return out
}

// HasWarnings reports whether any warning was recorded.
func (v *Validator) HasWarnings() bool { return len(v.warnings) > 0 }
