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

package budyko

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// inputInfo holds the description and units of the variables in an
// input netCDF file.
var inputInfo = map[string][2]string{
	"Elevation":     {"Elevation above sea level", "m"},
	"Latitude":      {"Latitude of the cell center", "radians"},
	"KRs":           {"Hargreaves radiation adjustment coefficient", "-"},
	"MaxStorage":    {"Plant-available soil water holding capacity", "mm"},
	"Precipitation": {"Monthly precipitation", "mm/month"},
	"TMin":          {"Mean daily minimum temperature", "°C"},
	"TMax":          {"Mean daily maximum temperature", "°C"},
}

// WriteInputsNCF writes in to netCDF file w. Per-cell variables have the
// dimension "cell" and monthly variables have the dimensions
// ["cell", "month"].
func WriteInputsNCF(w *os.File, in *Inputs) error {
	if err := in.Validate(); err != nil {
		return err
	}
	h := cdf.NewHeader([]string{"cell", "month"}, []int{in.NumCells, MonthsPerYear})
	h.AddAttribute("", "comment", "Budyko water balance model input data file")
	h.AddAttribute("", "data_version", DataVersion)
	h.AddAttribute("", "nodata", []float64{in.NoData})

	data := map[string]*sparse.DenseArray{
		"Elevation":     denseCells(in.Elevation),
		"Latitude":      denseCells(in.Latitude),
		"KRs":           denseCells(in.KRs),
		"MaxStorage":    denseCells(in.MaxStorage),
		"Precipitation": denseMonths(in.Precipitation, in.NumCells),
		"TMin":          denseMonths(in.TMin, in.NumCells),
		"TMax":          denseMonths(in.TMax, in.NumCells),
	}
	return writeNCFData(w, h, data, inputInfo)
}

func denseCells(v []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(v))
	copy(a.Elements, v)
	return a
}

func denseMonths(v MonthlyField, n int) *sparse.DenseArray {
	a := sparse.ZerosDense(n, MonthsPerYear)
	copy(a.Elements, v)
	return a
}

// LoadInputsNCF reads model inputs from a netCDF file in the format
// written by WriteInputsNCF.
func LoadInputsNCF(rw cdf.ReaderWriterAt) (*Inputs, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("budyko.LoadInputsNCF: %v", err)
	}
	dataVersion, ok := f.Header.GetAttribute("", "data_version").(string)
	if !ok || dataVersion != DataVersion {
		return nil, fmt.Errorf("budyko.LoadInputsNCF: data version %q is incompatible "+
			"with the required version %s", dataVersion, DataVersion)
	}
	noData, ok := f.Header.GetAttribute("", "nodata").([]float64)
	if !ok || len(noData) != 1 {
		return nil, fmt.Errorf("budyko.LoadInputsNCF: missing or invalid 'nodata' attribute")
	}

	vars := make(map[string]*sparse.DenseArray)
	for _, v := range f.Header.Variables() {
		if _, ok := inputInfo[v]; !ok {
			continue
		}
		d, err := readNCF(f, v)
		if err != nil {
			return nil, fmt.Errorf("budyko.LoadInputsNCF: %v", err)
		}
		vars[v] = d
	}
	for name := range inputInfo {
		if _, ok := vars[name]; !ok {
			return nil, fmt.Errorf("budyko.LoadInputsNCF: missing variable %s", name)
		}
	}

	in := &Inputs{
		NumCells:      vars["Elevation"].Shape[0],
		Elevation:     vars["Elevation"].Elements,
		Latitude:      vars["Latitude"].Elements,
		KRs:           vars["KRs"].Elements,
		MaxStorage:    vars["MaxStorage"].Elements,
		Precipitation: MonthlyField(vars["Precipitation"].Elements),
		TMin:          MonthlyField(vars["TMin"].Elements),
		TMax:          MonthlyField(vars["TMax"].Elements),
		NoData:        noData[0],
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// WriteNCF writes the model outputs, along with any additional variables
// in extra, to netCDF file w. All variables must have the shape
// [NumCells, MonthsPerYear].
func (o *Outputs) WriteNCF(w *os.File, extra map[string]*sparse.DenseArray) error {
	h := cdf.NewHeader([]string{"cell", "month"}, []int{o.NumCells, MonthsPerYear})
	h.AddAttribute("", "comment", "Budyko water balance model output file")
	h.AddAttribute("", "data_version", DataVersion)
	h.AddAttribute("", "nodata", []float64{o.NoData})

	data := make(map[string]*sparse.DenseArray)
	info := make(map[string][2]string)
	for _, name := range OutputNames {
		data[name], _ = o.Variable(name)
		info[name] = outputInfo[name]
	}
	for name, d := range extra {
		if _, ok := data[name]; ok {
			return fmt.Errorf("budyko: derived output variable %s has the same name as a model output", name)
		}
		if len(d.Shape) != 2 || d.Shape[0] != o.NumCells || d.Shape[1] != MonthsPerYear {
			return fmt.Errorf("budyko: derived output variable %s has shape %v", name, d.Shape)
		}
		data[name] = d
		info[name] = [2]string{"Derived output variable", "-"}
	}
	return writeNCFData(w, h, data, info)
}

// writeNCFData adds data to header h, creates file w, and writes the data
// to it.
func writeNCFData(w *os.File, h *cdf.Header, data map[string]*sparse.DenseArray, info map[string][2]string) error {
	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(data))
	for n := range data {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		dims := []string{"cell"}
		if len(data[name].Shape) == 2 {
			dims = append(dims, "month")
		}
		h.AddVariable(name, dims, []float32{0})
		h.AddAttribute(name, "description", info[name][0])
		h.AddAttribute(name, "units", info[name][1])
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range names {
		if err = writeNCF(f, name, data[name]); err != nil {
			return fmt.Errorf("budyko: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

func readNCF(f *cdf.File, Var string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(Var)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not found", Var)
	}
	r := f.Reader(Var, nil, nil)
	d := sparse.ZerosDense(dims...)
	tmp := make([]float32, len(d.Elements))
	if _, err := r.Read(tmp); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", Var, err)
	}
	for i, v := range tmp {
		d.Elements[i] = float64(v)
	}
	return d, nil
}

// LoadOutputsNCF reads model outputs from a netCDF file in the format
// written by Outputs.WriteNCF. Derived output variables are ignored.
func LoadOutputsNCF(rw cdf.ReaderWriterAt) (*Outputs, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("budyko.LoadOutputsNCF: %v", err)
	}
	noData, ok := f.Header.GetAttribute("", "nodata").([]float64)
	if !ok || len(noData) != 1 {
		return nil, fmt.Errorf("budyko.LoadOutputsNCF: missing or invalid 'nodata' attribute")
	}
	o := &Outputs{NoData: noData[0]}
	for _, p := range []struct {
		name string
		a    **sparse.DenseArray
	}{
		{"ActualEvap", &o.ActualEvap},
		{"PotentialEvap", &o.PotentialEvap},
		{"Runoff", &o.Runoff},
		{"NetRadiation", &o.NetRadiation},
	} {
		d, err := readNCF(f, p.name)
		if err != nil {
			return nil, fmt.Errorf("budyko.LoadOutputsNCF: %v", err)
		}
		*p.a = d
	}
	o.NumCells = o.ActualEvap.Shape[0]
	return o, nil
}
