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

import "github.com/sirupsen/logrus"

// log is the package-wide structured logger. Callers may replace it with a
// configured entry via SetLogger.
var log = logrus.WithField("pkg", "weather")

// SetLogger installs l as the package's logger, letting a host application
// attach its own fields/output/level (spec.md SPEC_FULL §2.1).
func SetLogger(l *logrus.Entry) { log = l }
