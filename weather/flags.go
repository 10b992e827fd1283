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

// SpecifiedBits is the 32-bit flag word recording, per observation field,
// whether a value was SPECIFIED (from the source), OVERRODE (modified by a
// filter at this hour) or OVERRODE_HISTORY (modified in the past, still
// affecting this hour cumulatively).
type SpecifiedBits uint32

const (
	SpecifiedTemperature SpecifiedBits = 1 << iota
	SpecifiedDewPoint
	SpecifiedRH
	SpecifiedPrecip
	SpecifiedWindSpeed
	SpecifiedWindDirection
	SpecifiedWindGust

	OverrodeTemperature
	OverrodeDewPoint
	OverrodeRH
	OverrodePrecip
	OverrodeWindSpeed
	OverrodeWindDirection
	OverrodeWindGust

	OverrodeHistoryTemperature
	OverrodeHistoryDewPoint
	OverrodeHistoryRH
	OverrodeHistoryPrecip
	OverrodeHistoryWindSpeed
	OverrodeHistoryWindDirection
	OverrodeHistoryWindGust

	// DayHourlySpecified marks a day record as built from hourly
	// observations rather than from a daily summary.
	DayHourlySpecified
)

// Has reports whether all bits in mask are set.
func (s SpecifiedBits) Has(mask SpecifiedBits) bool { return s&mask == mask }

// Any reports whether any bit in mask is set.
func (s SpecifiedBits) Any(mask SpecifiedBits) bool { return s&mask != 0 }

// overrideMask is every OVERRODE_* (not history, not specified) bit, used
// by the pipeline driver to decide whether a query point carries any
// spatial/filter override at all (spec.md §4.I step 4).
const overrideMask = OverrodeTemperature | OverrodeDewPoint | OverrodeRH |
	OverrodePrecip | OverrodeWindSpeed | OverrodeWindDirection | OverrodeWindGust

// InterpolationFlags are the simulator's per-query policy flags
// (spec.md §6, OR-combinable).
type InterpolationFlags uint32

const (
	InterpolateSpatial InterpolationFlags = 1 << iota
	InterpolatePrecip
	InterpolateWind
	InterpolateWindVector // implies InterpolateWind
	InterpolateTempRH
	InterpolateCalcFWI
	InterpolateHistory
	InterpolateTemporal
	QueryPrimaryWxStream
	QueryAnyWxStream
	AlternateCache
	IgnoreCache
)

// Has reports whether all bits in mask are set.
func (f InterpolationFlags) Has(mask InterpolationFlags) bool { return f&mask == mask }

// AttributeCode identifies a configuration attribute (spec.md §6).
type AttributeCode int

const (
	AttrIDWExponentTemp AttributeCode = iota
	AttrIDWExponentWS
	AttrIDWExponentPrecip
	AttrIDWExponentFWI
	AttrFFMCVanWagner
	AttrFFMCLawson
	AttrFWIUseSpecified
	AttrTempAlpha
	AttrTempBeta
	AttrTempGamma
	AttrWindAlpha
	AttrWindBeta
	AttrWindGamma
	AttrInitialFFMC
	AttrInitialDMC
	AttrInitialDC
	AttrInitialBUI
	AttrInitialRain
	AttrInitialHFFMC
	AttrInitialHFFMCTime
	AttrStartTime
	AttrEndTime
	AttrStartTimespan
	AttrEndTimespan
	AttrGridApplyFileSectors
	AttrGridApplyFileDefault
)

// FFMCMethod selects the hourly-FFMC reconstruction method for a stream.
type FFMCMethod int

const (
	FFMCVanWagner FFMCMethod = iota
	FFMCLawson
)

// FilterOp is a polygon-filter operation (spec.md §3, Polygon filter).
// OpNone (-1) is the sentinel meaning "no change for this variable".
type FilterOp int

const (
	OpNone FilterOp = -1
	OpSet  FilterOp = 0
	OpAdd  FilterOp = 1
	OpSub  FilterOp = 2
	OpMul  FilterOp = 3
	OpDiv  FilterOp = 4
)
