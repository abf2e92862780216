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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/budyko/internal/ascgrid"
	"github.com/spf13/cast"
)

// InputConfig specifies where the model input data are read from.
type InputConfig struct {
	// NCF is the path to a netCDF file holding all of the inputs.
	// If it is set, the grid paths are ignored.
	NCF string

	// Elevation, MaxStorage, and KRs are paths to ESRI ASCII grids.
	Elevation, MaxStorage, KRs string

	// Precipitation, TMin, and TMax are file name templates
	// for monthly ESRI ASCII grids. They must contain
	// ascgrid.MonthPlaceholder.
	Precipitation, TMin, TMax string

	// NoData is the no-data value used by the model. No-data values in the
	// grid files are converted to it.
	NoData float64
}

// inputConfig reads the input file locations from cfg and checks that
// they are complete.
func inputConfig(cfg *viper.Viper) (*InputConfig, error) {
	ic := &InputConfig{
		NCF:           os.ExpandEnv(cfg.GetString("InputNCF")),
		Elevation:     os.ExpandEnv(cfg.GetString("Inputs.Elevation")),
		MaxStorage:    os.ExpandEnv(cfg.GetString("Inputs.MaxStorage")),
		KRs:           os.ExpandEnv(cfg.GetString("Inputs.KRs")),
		Precipitation: os.ExpandEnv(cfg.GetString("Inputs.Precipitation")),
		TMin:          os.ExpandEnv(cfg.GetString("Inputs.TMin")),
		TMax:          os.ExpandEnv(cfg.GetString("Inputs.TMax")),
		NoData:        cfg.GetFloat64("NoData"),
	}
	if err := ic.check(); err != nil {
		return nil, err
	}
	return ic, nil
}

func (ic *InputConfig) check() error {
	if ic.NCF != "" {
		return nil
	}
	for _, f := range []struct {
		name, path string
		monthly    bool
	}{
		{name: "Elevation", path: ic.Elevation},
		{name: "MaxStorage", path: ic.MaxStorage},
		{name: "KRs", path: ic.KRs},
		{name: "Precipitation", path: ic.Precipitation, monthly: true},
		{name: "TMin", path: ic.TMin, monthly: true},
		{name: "TMax", path: ic.TMax, monthly: true},
	} {
		if f.path == "" {
			return fmt.Errorf("you need to specify either the InputNCF configuration variable "+
				"or the Inputs.%s configuration variable", f.name)
		}
		if f.monthly && !strings.Contains(f.path, ascgrid.MonthPlaceholder) {
			return fmt.Errorf("the Inputs.%s configuration variable (%s) needs to contain %s, "+
				"which is replaced by the month number", f.name, f.path, ascgrid.MonthPlaceholder)
		}
	}
	return nil
}

// Reports specifies the optional summary files that are written
// after a simulation.
type Reports struct {
	// ReportFile is the path of an .xlsx water budget workbook.
	ReportFile string

	// PlotFile is the path of a chart of the domain-mean fluxes.
	PlotFile string

	// ManifestFile is the path of a TOML run manifest.
	ManifestFile string

	// Settings holds the configuration recorded in the manifest.
	Settings map[string]interface{}
}

var plotFormats = []string{".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg", ".tif", ".tiff"}

// checkReportFiles expands any environment variables in the summary
// file paths and makes sure that they have usable extensions.
func checkReportFiles(reportFile, plotFile, manifestFile string) (*Reports, error) {
	r := &Reports{
		ReportFile:   os.ExpandEnv(reportFile),
		PlotFile:     os.ExpandEnv(plotFile),
		ManifestFile: os.ExpandEnv(manifestFile),
	}
	if r.ReportFile != "" && !strings.EqualFold(filepath.Ext(r.ReportFile), ".xlsx") {
		return nil, fmt.Errorf("the ReportFile configuration variable (%s) needs to end in .xlsx", r.ReportFile)
	}
	if r.PlotFile != "" {
		ext := strings.ToLower(filepath.Ext(r.PlotFile))
		ok := false
		for _, f := range plotFormats {
			if ext == f {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("the PlotFile configuration variable (%s) needs to end in one of %v", r.PlotFile, plotFormats)
		}
	}
	if r.ManifestFile != "" && !strings.EqualFold(filepath.Ext(r.ManifestFile), ".toml") {
		return nil, fmt.Errorf("the ManifestFile configuration variable (%s) needs to end in .toml", r.ManifestFile)
	}
	for _, f := range []string{r.ReportFile, r.PlotFile, r.ManifestFile} {
		if f == "" || IsBlob(f) {
			continue
		}
		if _, err := os.Stat(filepath.Dir(f)); err != nil {
			return nil, fmt.Errorf("budyko: the directory for %s doesn't exist: %v", f, err)
		}
	}
	return r, nil
}

// checkOutputVars expands any environment variables in the
// derived output variable names and expressions.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.ncf")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		url, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		_, err = OpenBucket(context.TODO(), url.Scheme+"://"+url.Host)
		if err != nil {
			return f, fmt.Errorf("budyko: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("budyko: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// checkNumYears makes sure that at least one year is simulated.
func checkNumYears(n int) (int, error) {
	if n < 1 {
		return n, fmt.Errorf("the NumYears configuration variable needs to be at least 1 but is %d", n)
	}
	return n, nil
}

// checkBucketExponent makes sure that the Budyko curve exponent is
// positive.
func checkBucketExponent(e float64) (float64, error) {
	if !(e > 0) || math.IsInf(e, 0) {
		return e, fmt.Errorf("the BucketExponent configuration variable needs to be a positive number but is %g", e)
	}
	return e, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return make(map[string]string), nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if v == "" {
			return make(map[string]string), nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("budyko: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("budyko: invalid type for %s: %#v", varName, i)
	}
}
