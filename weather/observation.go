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

// HourlyObservation is one hour's weather reading: temperature and
// dew-point in C, relative humidity as a fraction 0-1, precipitation in
// mm, wind speed and gust in km/h, wind direction in radians (Cartesian
// convention), and the per-field specified/overridden flag word.
type HourlyObservation struct {
	Temperature    float64
	DewPoint       float64
	RH             float64
	Precip         float64
	WindSpeed      float64
	WindGust       float64
	HasGust        bool
	WindDirection  float64
	Specified      SpecifiedBits
}

// DailySummary is one day's min/max/mean aggregate weather. Invariant: if
// DayHourlySpecified is set on the owning day, these values are derived
// from the hourly observations; otherwise the hourly observations (when
// reconstructed) are derived from these.
type DailySummary struct {
	MinTemp, MaxTemp   float64
	MinWS, MaxWS       float64
	MinGust, MaxGust   float64
	HasGust            bool
	MeanRH             float64
	Precip             float64
	MeanWindDirection  float64
}

// IWXData is the instantaneous weather result returned by stream and grid
// queries: an hourly observation plus the bits describing what was
// specified/overridden to produce it.
type IWXData struct {
	HourlyObservation
}
