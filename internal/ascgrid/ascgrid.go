/*
Copyright © 2019 the Budyko authors.
This file is part of Budyko.

Budyko is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Budyko is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Budyko.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package ascgrid reads and writes raster grids in the ESRI ASCII format.
// Grids are held in two-dimensional arrays with shape [nrows, ncols],
// where row 0 is the northernmost row, as in the files.
package ascgrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

// Header holds the georeferencing information of a grid.
type Header struct {
	NCols, NRows int

	// XLL and YLL are the coordinates of the lower left cell [degrees].
	XLL, YLL float64

	// Center is true if XLL and YLL were given as cell centers
	// (xllcenter) rather than corners (xllcorner).
	Center bool

	CellSize float64 // degrees
	NoData   float64
}

// ReferenceHeader returns the header of the 0.05° continental Australian
// grid used by the national soil water balance products.
func ReferenceHeader() Header {
	return Header{
		NCols:    886,
		NRows:    691,
		XLL:      111.975,
		YLL:      -44.525,
		CellSize: 0.05,
		NoData:   -9999,
	}
}

// Latitudes returns the latitude of each grid row in radians, where the
// latitude of row i is YLL + (NRows-1-i)·CellSize degrees. For xllcorner
// headers this is the southern edge of the row; the radiation
// calculations have always used this latitude, so it is kept.
func (h Header) Latitudes() []float64 {
	lat := make([]float64, h.NRows)
	for i := range lat {
		lat[i] = (h.YLL + float64(h.NRows-1-i)*h.CellSize) * math.Pi / 180
	}
	return lat
}

// EarthRadius is the mean radius of the Earth [m].
const EarthRadius = 6371000.0

// CellAreas returns the surface area [m²] of a cell in each grid row,
// treating the Earth as a sphere.
func (h Header) CellAreas() []float64 {
	const deg = math.Pi / 180
	dLon := h.CellSize * deg
	half := h.CellSize / 2 * deg
	offset := 0.0 // from the row latitude to the row centre
	if !h.Center {
		offset = half
	}
	a := make([]float64, h.NRows)
	for i, lat := range h.Latitudes() {
		c := lat + offset
		a[i] = EarthRadius * EarthRadius * dLon * math.Abs(math.Sin(c+half)-math.Sin(c-half))
	}
	return a
}

// SameGrid returns whether h and o describe the same grid cells.
func (h Header) SameGrid(o Header) bool {
	const tol = 1e-9
	return h.NCols == o.NCols && h.NRows == o.NRows && h.Center == o.Center &&
		math.Abs(h.XLL-o.XLL) < tol && math.Abs(h.YLL-o.YLL) < tol &&
		math.Abs(h.CellSize-o.CellSize) < tol
}

// Read reads a grid from r.
func Read(r io.Reader) (Header, *sparse.DenseArray, error) {
	var h Header
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	s.Split(bufio.ScanWords)

	// Header lines are keyword/value pairs; the data starts with the first
	// token that is not a keyword.
	var first string
	haveNoData := false
	seen := make(map[string]bool)
	for s.Scan() {
		key := strings.ToLower(s.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = s.Text()
			break
		}
		if !s.Scan() {
			return h, nil, fmt.Errorf("ascgrid: missing value for header keyword %s", key)
		}
		val := s.Text()
		var err error
		switch key {
		case "ncols":
			h.NCols, err = strconv.Atoi(val)
		case "nrows":
			h.NRows, err = strconv.Atoi(val)
		case "xllcorner":
			h.XLL, err = strconv.ParseFloat(val, 64)
		case "yllcorner":
			h.YLL, err = strconv.ParseFloat(val, 64)
		case "xllcenter":
			h.XLL, err = strconv.ParseFloat(val, 64)
			h.Center = true
		case "yllcenter":
			h.YLL, err = strconv.ParseFloat(val, 64)
			h.Center = true
		case "cellsize":
			h.CellSize, err = strconv.ParseFloat(val, 64)
		case "nodata_value":
			h.NoData, err = strconv.ParseFloat(val, 64)
			haveNoData = true
		default:
			return h, nil, fmt.Errorf("ascgrid: unknown header keyword %q", key)
		}
		if err != nil {
			return h, nil, fmt.Errorf("ascgrid: invalid value for %s: %v", key, err)
		}
		seen[key] = true
	}
	if err := s.Err(); err != nil {
		return h, nil, fmt.Errorf("ascgrid: %v", err)
	}
	if !seen["ncols"] || !seen["nrows"] || !seen["cellsize"] {
		return h, nil, fmt.Errorf("ascgrid: header must include ncols, nrows, and cellsize")
	}
	if h.NCols <= 0 || h.NRows <= 0 {
		return h, nil, fmt.Errorf("ascgrid: invalid grid size %d×%d", h.NRows, h.NCols)
	}
	if !haveNoData {
		h.NoData = -9999
	}

	data := sparse.ZerosDense(h.NRows, h.NCols)
	n := 0
	parse := func(tok string) error {
		if n >= len(data.Elements) {
			return fmt.Errorf("ascgrid: grid has more than %d values", len(data.Elements))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("ascgrid: value %d: %v", n, err)
		}
		data.Elements[n] = v
		n++
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return h, nil, err
		}
	}
	for s.Scan() {
		if err := parse(s.Text()); err != nil {
			return h, nil, err
		}
	}
	if err := s.Err(); err != nil {
		return h, nil, fmt.Errorf("ascgrid: %v", err)
	}
	if n != len(data.Elements) {
		return h, nil, fmt.Errorf("ascgrid: grid has %d values but the header specifies %d", n, len(data.Elements))
	}
	return h, data, nil
}

// ReadFile reads a grid from the named file.
func ReadFile(path string) (Header, *sparse.DenseArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	h, data, err := Read(f)
	if err != nil {
		return h, nil, fmt.Errorf("%v (file %s)", err, path)
	}
	return h, data, nil
}

// Write writes a grid to w. data must have the shape [h.NRows, h.NCols].
func Write(w io.Writer, h Header, data *sparse.DenseArray) error {
	if len(data.Shape) != 2 || data.Shape[0] != h.NRows || data.Shape[1] != h.NCols {
		return fmt.Errorf("ascgrid: data shape %v does not match header %d×%d", data.Shape, h.NRows, h.NCols)
	}
	bw := bufio.NewWriter(w)
	xKey, yKey := "xllcorner", "yllcorner"
	if h.Center {
		xKey, yKey = "xllcenter", "yllcenter"
	}
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n%s %g\n%s %g\ncellsize %g\nNODATA_value %g\n",
		h.NCols, h.NRows, xKey, h.XLL, yKey, h.YLL, h.CellSize, h.NoData)
	for j := 0; j < h.NRows; j++ {
		for i := 0; i < h.NCols; i++ {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(data.Get(j, i), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes a grid to the named file.
func WriteFile(path string, h Header, data *sparse.DenseArray) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, h, data); err != nil {
		f.Close()
		return fmt.Errorf("%v (file %s)", err, path)
	}
	return f.Close()
}

// MonthPlaceholder is replaced by the two-digit month number in file name
// templates.
const MonthPlaceholder = "[MONTH]"

// MonthFile returns the file name for month m (0-11) by replacing
// MonthPlaceholder in template with the one-based, two-digit month
// number.
func MonthFile(template string, m int) string {
	return strings.Replace(template, MonthPlaceholder, fmt.Sprintf("%02d", m+1), -1)
}

// ReadMonthly reads twelve grids, one for each calendar month, from the
// files named by expanding template with MonthFile. All of the grids must
// have the same header.
func ReadMonthly(template string) (Header, [12]*sparse.DenseArray, error) {
	var out [12]*sparse.DenseArray
	var h0 Header
	if !strings.Contains(template, MonthPlaceholder) {
		return h0, out, fmt.Errorf("ascgrid: monthly file template %q does not contain %s", template, MonthPlaceholder)
	}
	for m := range out {
		h, data, err := ReadFile(MonthFile(template, m))
		if err != nil {
			return h0, out, err
		}
		if m == 0 {
			h0 = h
		} else if !h.SameGrid(h0) {
			return h0, out, fmt.Errorf("ascgrid: grid in %s does not match grid in %s", MonthFile(template, m), MonthFile(template, 0))
		}
		out[m] = data
	}
	return h0, out, nil
}

// Replace returns a copy of data where values equal to the no-data value
// from are replaced by the value to. It is used to bring grids with
// different no-data values to a common one.
func Replace(data *sparse.DenseArray, from, to float64) *sparse.DenseArray {
	o := sparse.ZerosDense(data.Shape...)
	for i, v := range data.Elements {
		if v == from || (math.IsNaN(from) && math.IsNaN(v)) {
			o.Elements[i] = to
		} else {
			o.Elements[i] = v
		}
	}
	return o
}
