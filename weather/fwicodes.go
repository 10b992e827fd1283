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

// Unset is the specified-code sentinel meaning "no override".
const Unset = -1.0

// ClearBUI is the specified-BUI sentinel meaning "clear any override".
const ClearBUI = -99.0

// FWICode is one code's specified/calculated pair. Specified >= 0 means
// "use this value instead of the calculated one"; Specified == Unset means
// no override is in effect; for BUI, Specified == ClearBUI clears any
// override.
type FWICode struct {
	Specified  float64
	Calculated float64
}

// Value returns the specified override when present (and honoured),
// otherwise the calculated value.
func (c FWICode) Value(honourSpecified bool) float64 {
	if honourSpecified && c.Specified >= 0 {
		return c.Specified
	}
	return c.Calculated
}

// DailyFWICodes holds the six Canadian FWI System codes for one day.
type DailyFWICodes struct {
	FFMC FWICode
	DMC  FWICode
	DC   FWICode
	BUI  FWICode
	ISI  FWICode
	FWI  FWICode
}

// IFWIData holds the three hourly FWI System codes.
type IFWIData struct {
	FFMC FWICode
	ISI  FWICode
	FWI  FWICode
}

// DFWIData is an alias naming convention for daily FWI results returned by
// queries, to mirror IFWIData for the instantaneous codes (spec.md §4.I).
type DFWIData = DailyFWICodes

// StartingCodes are the seed values a stream begins its FWI sequence from.
type StartingCodes struct {
	FFMC        float64
	DMC         float64
	DC          float64
	BUI         float64
	InitialRain float64

	HasInitialHFFMC bool
	InitialHFFMC    float64
	InitialHFFMCHour float64 // hour-of-day, LST
}
