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

import (
	"io"

	"github.com/ctessum/geom"
)

// CRSConverter converts between geographic (lat/lon, radians) and a grid's
// projected coordinate system. Constructed per-query by the host
// application; the underlying projection library is accessed under a
// process-global mutex there (spec.md §5, §9 Design Notes, "Global mutable
// state"). Not implemented here — interface only (spec.md §1).
type CRSConverter interface {
	ToProjected(latRad, lonRad float64) (geom.Point, error)
	ToGeographic(pt geom.Point) (latRad, lonRad float64, err error)
}

// VectorIO reads and writes the polygon/raster formats (shapefile, WFS,
// GeoTIFF) that back PolygonFilter and OverrideGrid definitions. Interface
// only (spec.md §1, §6 "Persisted state").
type VectorIO interface {
	ReadPolygons(path string) ([]geom.Polygon, error)
	ReadSectorRaster(path string) (*OverrideGrid, error)
}

// StateCodec serializes and deserializes the data model of §3 as the
// protocol-buffer message tree described in spec.md §6. Interface only;
// the wire format itself is out of scope.
type StateCodec interface {
	Encode(w io.Writer, s *Stream) error
	Decode(r io.Reader) (*Stream, error)
}
