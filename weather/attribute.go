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

import "time"

// SetAttribute validates and applies one of the grid's IDW-exponent
// attributes (spec.md §6). Temp and FWI exponents must be in (0, 10]; wind
// speed and precipitation accept [0, 10], where 0 selects nearest-neighbour.
func (g *Grid) SetAttribute(code AttributeCode, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch code {
	case AttrIDWExponentTemp:
		if value <= 0 || value > 10 {
			return newErr(InvalidData, "IDW_EXPONENT_TEMP must be in (0, 10]")
		}
		g.ExpTemp = value
	case AttrIDWExponentWS:
		if value < 0 || value > 10 {
			return newErr(InvalidData, "IDW_EXPONENT_WS must be in [0, 10]")
		}
		g.ExpWS = value
	case AttrIDWExponentPrecip:
		if value < 0 || value > 10 {
			return newErr(InvalidData, "IDW_EXPONENT_PRECIP must be in [0, 10]")
		}
		g.ExpPrecip = value
	case AttrIDWExponentFWI:
		if value <= 0 || value > 10 {
			return newErr(InvalidData, "IDW_EXPONENT_FWI must be in (0, 10]")
		}
		g.ExpFWI = value
	default:
		return newErr(InvalidData, "attribute code %d does not apply to a grid", code)
	}
	return nil
}

// GetAttribute returns the current value of one of the grid's attributes.
func (g *Grid) GetAttribute(code AttributeCode) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch code {
	case AttrIDWExponentTemp:
		return g.ExpTemp, nil
	case AttrIDWExponentWS:
		return g.ExpWS, nil
	case AttrIDWExponentPrecip:
		return g.ExpPrecip, nil
	case AttrIDWExponentFWI:
		return g.ExpFWI, nil
	default:
		return 0, newErr(InvalidData, "attribute code %d does not apply to a grid", code)
	}
}

// SetAttribute validates and applies one of the stream's scalar attributes:
// the hourly-FFMC method switch, the FWI-override honour flag, the diurnal
// curve shape coefficients, and the starting codes (spec.md §6).
func (s *Stream) SetAttribute(code AttributeCode, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch code {
	case AttrFFMCVanWagner:
		if value != 0 {
			s.Method = FFMCVanWagner
		}
	case AttrFFMCLawson:
		if value != 0 {
			s.Method = FFMCLawson
		}
	case AttrFWIUseSpecified:
		s.UserSpecified = value != 0
	case AttrTempAlpha:
		s.TempCurve.Alpha = value
	case AttrTempBeta:
		s.TempCurve.Beta = value
	case AttrTempGamma:
		s.TempCurve.Gamma = value
	case AttrWindAlpha:
		s.WindCurve.Alpha = value
	case AttrWindBeta:
		s.WindCurve.Beta = value
	case AttrWindGamma:
		s.WindCurve.Gamma = value
	case AttrInitialFFMC:
		if value < 0 || value > 101 {
			return newErr(InvalidData, "INITIAL_FFMC must be in [0, 101]")
		}
		s.Starting.FFMC = value
	case AttrInitialDMC:
		if value < 0 || value > 500 {
			return newErr(InvalidData, "INITIAL_DMC must be in [0, 500]")
		}
		s.Starting.DMC = value
	case AttrInitialDC:
		if value < 0 || value > 1500 {
			return newErr(InvalidData, "INITIAL_DC must be in [0, 1500]")
		}
		s.Starting.DC = value
	case AttrInitialBUI:
		if value == ClearBUI {
			s.Starting.BUI = 0
		} else if value < 0 || value > 300 {
			return newErr(InvalidData, "INITIAL_BUI must be in [0, 300] or -99 to clear")
		} else {
			s.Starting.BUI = value
		}
	case AttrInitialRain:
		if value < 0 {
			return newErr(InvalidData, "INITIAL_RAIN must be non-negative")
		}
		s.Starting.InitialRain = value
	case AttrInitialHFFMC:
		s.Starting.HasInitialHFFMC = true
		s.Starting.InitialHFFMC = value
	case AttrInitialHFFMCTime:
		s.Starting.InitialHFFMCHour = value
	default:
		return newErr(InvalidData, "attribute code %d does not apply to a stream", code)
	}
	return nil
}

// GetAttribute returns the current value of one of the stream's scalar
// attributes.
func (s *Stream) GetAttribute(code AttributeCode) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch code {
	case AttrFFMCVanWagner:
		return boolFloat(s.Method == FFMCVanWagner), nil
	case AttrFFMCLawson:
		return boolFloat(s.Method == FFMCLawson), nil
	case AttrFWIUseSpecified:
		return boolFloat(s.UserSpecified), nil
	case AttrTempAlpha:
		return s.TempCurve.Alpha, nil
	case AttrTempBeta:
		return s.TempCurve.Beta, nil
	case AttrTempGamma:
		return s.TempCurve.Gamma, nil
	case AttrWindAlpha:
		return s.WindCurve.Alpha, nil
	case AttrWindBeta:
		return s.WindCurve.Beta, nil
	case AttrWindGamma:
		return s.WindCurve.Gamma, nil
	case AttrInitialFFMC:
		return s.Starting.FFMC, nil
	case AttrInitialDMC:
		return s.Starting.DMC, nil
	case AttrInitialDC:
		return s.Starting.DC, nil
	case AttrInitialBUI:
		return s.Starting.BUI, nil
	case AttrInitialRain:
		return s.Starting.InitialRain, nil
	case AttrInitialHFFMC:
		return s.Starting.InitialHFFMC, nil
	case AttrInitialHFFMCTime:
		return s.Starting.InitialHFFMCHour, nil
	default:
		return 0, newErr(InvalidData, "attribute code %d does not apply to a stream", code)
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SetTimeWindow applies START_TIME/END_TIME to a polygon filter (spec.md
// §6). The filter's Start/End fields are otherwise set directly at
// construction; this exists for host code that only carries attribute
// codes rather than typed struct literals.
func (f *PolygonFilter) SetTimeWindow(start, end time.Time) error {
	if end.Before(start) {
		return newErr(InvalidData, "END_TIME must not precede START_TIME")
	}
	f.Start, f.End = start, end
	return nil
}

// SetTimespan applies START_TIMESPAN/END_TIMESPAN, the diurnal window a
// sectored override grid is active within (spec.md §6): 0 <= start < end <=
// 24h. The window is half-open, [start, end), so an end of 24h covers the
// day through 23:59:59.
func (g *OverrideGrid) SetTimespan(start, end time.Duration) error {
	if start < 0 || end > 24*time.Hour || start >= end {
		return newErr(InvalidData, "START_TIMESPAN/END_TIMESPAN must satisfy 0 <= start < end <= 24h")
	}
	g.StartSpan, g.EndSpan = start, end
	return nil
}
