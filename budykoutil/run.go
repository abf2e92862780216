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
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/internal/ascgrid"
	"github.com/spatialmodel/budyko/science/budykobucket"
	"github.com/spatialmodel/budyko/science/priestleytaylor"
	"github.com/spatialmodel/budyko/science/radiation"
	"github.com/spf13/cobra"
)

// newLogger returns a logger writing to w.
func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	}
	return l
}

// Run runs the model.
//
// CobraCommand is the cobra.Command instance where Run is called from.
// Log messages are written to its output as well as to LogFile.
//
// LogFile is the path to the desired logfile location.
//
// OutputFile is the path to the netCDF file where the monthly fluxes of
// the final year are saved. If OutputASCIIDir is not empty and the inputs
// are ESRI ASCII grids, the fluxes are also saved there as one grid per
// variable and month. LogFile, OutputFile, and the report files can be
// blob storage locations, in which case they are uploaded after the
// simulation finishes.
//
// OutputVariables specifies derived variables to be calculated from the
// model variables and saved along with the model outputs.
//
// inputs specifies where the input data are read from, NumYears is the
// number of annual cycles to simulate, and BucketExponent is the shape
// exponent of the Budyko curve. reports, if not nil, specifies optional
// summary files.
func Run(ctx context.Context, CobraCommand *cobra.Command, LogFile, OutputFile, OutputASCIIDir string,
	OutputVariables map[string]string, inputs *InputConfig, NumYears int, BucketExponent float64,
	reports *Reports) (err error) {

	startTime := time.Now()

	var upload uploader

	// Start a function to receive and print log messages.
	logfile, err := os.Create(upload.maybeUpload(LogFile))
	if err != nil {
		return fmt.Errorf("budyko: problem creating log file: %v", err)
	}
	log := newLogger(io.MultiWriter(CobraCommand.OutOrStdout(), logfile))
	cEquilibrium := make(chan budyko.EquilibriumStatus)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		for s := range cEquilibrium {
			log.WithFields(logrus.Fields{
				"year":  s.Year,
				"final": s.Final,
			}).Info(s.String())
		}
		wg.Done()
	}()

	defer func() { // Wait for the logging to finish.
		close(cEquilibrium)
		wg.Wait()
		logfile.Close()
		if err == nil {
			err = upload.upload(ctx)
		}
	}()

	log.Info("parsing output variable expressions")
	o, err := budyko.NewOutputter(OutputVariables, nil)
	if err != nil {
		return err
	}

	in, grid, err := LoadInputs(ctx, inputs, log)
	if err != nil {
		return err
	}
	if OutputASCIIDir != "" && grid == nil {
		log.Warn("OutputASCIIDir is ignored because the inputs are not ASCII grids")
	}

	s := &saver{
		outputter:  o,
		outputFile: upload.maybeUpload(OutputFile),
		asciiDir:   OutputASCIIDir,
		grid:       grid,
		log:        log,
	}
	if reports != nil {
		s.reports = &Reports{
			ReportFile:   upload.maybeUpload(reports.ReportFile),
			PlotFile:     upload.maybeUpload(reports.PlotFile),
			ManifestFile: upload.maybeUpload(reports.ManifestFile),
			Settings:     reports.Settings,
		}
	}
	if upload.err != nil {
		return upload.err
	}

	bucket := budykobucket.Bucket{Exponent: BucketExponent}
	d := &budyko.Model{
		Years: NumYears,
		InitFuncs: []budyko.DomainManipulator{
			budyko.Load(in),
			budyko.Calculations(radiation.Calculate(), priestleytaylor.Calculate()),
			budyko.InitializeStorage(),
		},
		RunFuncs: []budyko.DomainManipulator{
			budyko.AnnualCycle(bucket.Step),
			budyko.Log(log),
			budyko.YearCheck(cEquilibrium),
		},
		CleanupFuncs: []budyko.DomainManipulator{
			s.save,
			s.saveReports,
		},
	}

	log.WithField("cells", in.NumCells).Info("initializing model")
	if err = d.Init(); err != nil {
		return fmt.Errorf("budyko: problem initializing model: %v", err)
	}
	if err = d.Run(); err != nil {
		return fmt.Errorf("budyko: problem running simulation: %v", err)
	}
	if err = d.Cleanup(); err != nil {
		return fmt.Errorf("budyko: problem shutting down model: %v", err)
	}

	log.WithField("elapsed", time.Since(startTime).Round(time.Millisecond)).Info("simulation finished")
	return nil
}

// saver writes the results of a finished simulation.
type saver struct {
	outputter  *budyko.Outputter
	outputFile string
	asciiDir   string
	grid       *ascgrid.Header
	reports    *Reports
	log        logrus.FieldLogger

	// extra holds the derived output variables.
	extra map[string]*sparse.DenseArray
}

// save evaluates the derived output variables and writes all outputs.
func (s *saver) save(d *budyko.Model) error {
	var err error
	s.extra, err = s.outputter.Evaluate(d)
	if err != nil {
		return err
	}
	res := d.Results()

	s.log.WithField("file", s.outputFile).Info("writing output file")
	f, err := os.Create(s.outputFile)
	if err != nil {
		return fmt.Errorf("budykoutil: problem creating output file: %v", err)
	}
	if err := res.WriteNCF(f, s.extra); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if s.asciiDir == "" || s.grid == nil {
		return nil
	}
	vars := make(map[string]*sparse.DenseArray, len(budyko.OutputNames)+len(s.extra))
	for _, name := range budyko.OutputNames {
		vars[name], _ = res.Variable(name)
	}
	for name, v := range s.extra {
		vars[name] = v
	}
	files, err := WriteASCII(s.asciiDir, *s.grid, vars)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"dir":   s.asciiDir,
		"files": len(files),
	}).Info("wrote ASCII grids")
	return nil
}

// saveReports writes the water budget workbook, chart, and manifest.
func (s *saver) saveReports(d *budyko.Model) error {
	r := s.reports
	if r == nil || (r.ReportFile == "" && r.PlotFile == "" && r.ManifestFile == "") {
		return nil
	}
	var area []float64
	if s.grid != nil {
		rowArea := s.grid.CellAreas()
		area = make([]float64, s.grid.NRows*s.grid.NCols)
		for i := range area {
			area[i] = rowArea[i/s.grid.NCols]
		}
	}
	b, err := NewBudget(d, area)
	if err != nil {
		return err
	}
	annual := b.Annual()
	s.log.WithFields(logrus.Fields{
		"cells":       b.NumValid,
		"P (mm)":      annual["Precipitation"].Value() * 1000,
		"AET (mm)":    annual["ActualEvap"].Value() * 1000,
		"runoff (mm)": annual["Runoff"].Value() * 1000,
	}).Info("annual water budget")

	if r.ReportFile != "" {
		s.log.WithField("file", r.ReportFile).Info("writing water budget report")
		if err := WriteReport(r.ReportFile, b); err != nil {
			return err
		}
	}
	if r.PlotFile != "" {
		s.log.WithField("file", r.PlotFile).Info("drawing plot")
		if err := WritePlot(r.PlotFile, b); err != nil {
			return err
		}
	}
	if r.ManifestFile != "" {
		m, err := NewManifest(d, r.Settings, s.extra)
		if err != nil {
			return err
		}
		for _, name := range m.outputNames() {
			s.log.WithFields(logrus.Fields{
				"min":  m.Outputs[name].Min,
				"mean": m.Outputs[name].Mean,
				"max":  m.Outputs[name].Max,
			}).Info(name)
		}
		s.log.WithField("file", r.ManifestFile).Info("writing manifest")
		if err := WriteManifest(r.ManifestFile, m); err != nil {
			return err
		}
	}
	return nil
}
