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

// Kind identifies one of the weather subsystem's error taxonomy entries
// (spec.md §7).
type Kind int

const (
	_ Kind = iota
	GridUninitialized
	SimulationRunning
	StreamAlreadyAdded
	StationAlreadyPresent
	StationsTooClose
	InvalidDates
	AttemptPrepend
	AttemptOverwrite
	BadFileType
	InvalidData
	LocationOutOfRange
	InitialValuesOnly
	OutOfMemory
	NilPointer
)

func (k Kind) String() string {
	switch k {
	case GridUninitialized:
		return "GRID_UNINITIALIZED"
	case SimulationRunning:
		return "SIMULATION_RUNNING"
	case StreamAlreadyAdded:
		return "WEATHER_STREAM_ALREADY_ADDED"
	case StationAlreadyPresent:
		return "WEATHER_STATION_ALREADY_PRESENT"
	case StationsTooClose:
		return "WEATHERSTATIONS_TOO_CLOSE"
	case InvalidDates:
		return "WEATHER_INVALID_DATES"
	case AttemptPrepend:
		return "WEATHER_STREAM_ATTEMPT_PREPEND"
	case AttemptOverwrite:
		return "WEATHER_STREAM_ATTEMPT_OVERWRITE"
	case BadFileType:
		return "BAD_FILE_TYPE"
	case InvalidData:
		return "INVALID_DATA"
	case LocationOutOfRange:
		return "GRID_LOCATION_OUT_OF_RANGE"
	case InitialValuesOnly:
		return "INITIAL_VALUES_ONLY"
	case OutOfMemory:
		return "E_OUTOFMEMORY"
	case NilPointer:
		return "E_POINTER"
	default:
		return "UNKNOWN"
	}
}

// Error is the weather subsystem's error type: an error-taxonomy Kind plus
// context, and for import errors the source line number it occurred on.
type Error struct {
	Kind Kind
	Msg  string
	Line int // 0 when not applicable
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("weather: %s: %s (line %d)", e.Kind, e.Msg, e.Line)
	}
	return fmt.Sprintf("weather: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, weather.ErrKind(weather.SimulationRunning)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// newErr constructs an *Error, formatting Msg with fmt.Sprintf semantics.
func newErr(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// ErrKind constructs a sentinel *Error carrying only a Kind, suitable for
// use with errors.Is.
func ErrKind(k Kind) *Error { return &Error{Kind: k} }
