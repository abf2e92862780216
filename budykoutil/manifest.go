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

package budykoutil

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/hash"
	"gonum.org/v1/gonum/floats"
)

// Manifest records how a simulation was run and summarizes its results.
type Manifest struct {
	Version     string
	DataVersion string
	Created     time.Time
	Years       int

	// InputHash identifies the input data.
	InputHash string

	NumCells   int
	NumMissing int

	// Config holds the configuration settings of the run.
	Config map[string]interface{}

	// Outputs holds summary statistics of each output variable over the
	// valid cell-months of the final year.
	Outputs map[string]Summary
}

// Summary holds statistics of an output variable.
type Summary struct {
	Min, Max, Mean float64

	// Count is the number of finite values.
	Count int
}

// summarize calculates statistics of the finite values in v that are not
// equal to noData.
func summarize(v []float64, noData float64) Summary {
	valid := make([]float64, 0, len(v))
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x == noData {
			continue
		}
		valid = append(valid, x)
	}
	if len(valid) == 0 {
		return Summary{}
	}
	return Summary{
		Min:   floats.Min(valid),
		Max:   floats.Max(valid),
		Mean:  floats.Sum(valid) / float64(len(valid)),
		Count: len(valid),
	}
}

// NewManifest creates a manifest for the finished simulation d, including
// any derived output variables in extra.
func NewManifest(d *budyko.Model, settings map[string]interface{}, extra map[string]*sparse.DenseArray) (*Manifest, error) {
	in := d.Inputs()
	res := d.Results()
	if in == nil || res == nil {
		return nil, fmt.Errorf("budykoutil: the model has not been loaded")
	}
	m := &Manifest{
		Version:     budyko.Version,
		DataVersion: budyko.DataVersion,
		Created:     time.Now().UTC(),
		Years:       d.Years,
		InputHash:   hash.Hash(in),
		NumCells:    in.NumCells,
		Config:      tomlSafe(settings),
		Outputs:     make(map[string]Summary),
	}
	for _, c := range d.Cells() {
		if c.Missing {
			m.NumMissing++
		}
	}
	for _, name := range budyko.OutputNames {
		a, err := res.Variable(name)
		if err != nil {
			return nil, err
		}
		m.Outputs[name] = summarize(a.Elements, res.NoData)
	}
	for name, a := range extra {
		m.Outputs[name] = summarize(a.Elements, res.NoData)
	}
	return m, nil
}

// tomlSafe returns a copy of settings that can be encoded as TOML: nil
// values are dropped and non-finite numbers are stored as strings.
func tomlSafe(settings map[string]interface{}) map[string]interface{} {
	o := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		switch x := v.(type) {
		case nil:
			continue
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				o[k] = fmt.Sprint(x)
				continue
			}
		case map[string]interface{}:
			o[k] = tomlSafe(x)
			continue
		}
		o[k] = v
	}
	return o
}

// WriteManifest saves m to a TOML file at path.
func WriteManifest(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("budykoutil: creating manifest: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("budykoutil: writing manifest: %v", err)
	}
	return f.Close()
}

// ReadManifest reads a manifest from the TOML file at path.
func ReadManifest(path string) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeFile(path, m); err != nil {
		return nil, fmt.Errorf("budykoutil: reading manifest: %v", err)
	}
	return m, nil
}

// outputNames returns the sorted names of the summarized outputs.
func (m *Manifest) outputNames() []string {
	names := make([]string, 0, len(m.Outputs))
	for n := range m.Outputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
