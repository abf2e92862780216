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
	"os"
	"runtime"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/budyko"
	"github.com/spatialmodel/budyko/science/budykobucket"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the model.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputNCF",
			usage: `
              InputNCF is the path to a netCDF file holding all of the model
              input data, as written by WriteInputsNCF. If it is set, the
              Inputs.* ASCII grid options are ignored. It can include
              environment variables and can be a URL or a blob storage
              location (file://, gs://, or s3://).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.Elevation",
			usage: `
              Inputs.Elevation is the path to an ESRI ASCII grid of
              elevation above sea level [m]. The georeferencing of this
              grid is used for all other grids and for the outputs.`,
			defaultVal: "DEM_5km.asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.MaxStorage",
			usage: `
              Inputs.MaxStorage is the path to an ESRI ASCII grid of
              plant-available soil water holding capacity [mm].`,
			defaultVal: "PAWHC_5km.asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.KRs",
			usage: `
              Inputs.KRs is the path to an ESRI ASCII grid of the Hargreaves
              radiation adjustment coefficient (0.16 for interior to 0.19
              for coastal locations).`,
			defaultVal: "kRs_5km.asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.Precipitation",
			usage: `
              Inputs.Precipitation is the file name template of the monthly
              ESRI ASCII precipitation grids [mm/month]. "[MONTH]" in the
              template is replaced by the month number, from 01 to 12.`,
			defaultVal: "pr[MONTH].asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.TMin",
			usage: `
              Inputs.TMin is the file name template of the monthly ESRI
              ASCII grids of mean daily minimum temperature [°C].`,
			defaultVal: "tasmin[MONTH].asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Inputs.TMax",
			usage: `
              Inputs.TMax is the file name template of the monthly ESRI
              ASCII grids of mean daily maximum temperature [°C].`,
			defaultVal: "tasmax[MONTH].asc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NoData",
			usage: `
              NoData is the value that marks cells without data in the
              ASCII input grids and in the outputs. No-data values
              declared in the individual grid headers are converted to
              this value.`,
			defaultVal: -9999.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumYears",
			usage: `
              NumYears is the number of annual cycles to simulate. The
              fluxes from the last year are saved.`,
			shorthand:  "n",
			defaultVal: budyko.DefaultYears,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumProcessors",
			usage: `
              NumProcessors is the number of processors to use for the
              simulation. If it is less than 1, all available processors
              are used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "BucketExponent",
			usage: `
              BucketExponent is the shape exponent of the Budyko curve
              used to partition water between evaporation and storage.`,
			defaultVal: budykobucket.DefaultExponent,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the netCDF file where the monthly
              fluxes of the final simulated year should be saved. It can
              include environment variables and can be a blob storage
              location.`,
			shorthand:  "o",
			defaultVal: "budyko_output.ncf",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputASCIIDir",
			usage: `
              OutputASCIIDir is a directory where one ESRI ASCII grid per
              output variable and month should be written (for example,
              Ea01.asc and Runoff01.asc). It is only used when the inputs
              are ASCII grids. If it is empty, no grids are written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional variables to be saved,
              in the format {"VarName":"expression"}. Expressions can use
              the model variables ActualEvap, PotentialEvap, Runoff,
              NetRadiation, Precipitation, TMin, TMax, and MaxStorage, the
              other variables defined here, and the functions exp, sqrt,
              max, and min.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ReportFile",
			usage: `
              ReportFile is the path to an .xlsx workbook where the monthly
              domain water budget should be saved. If it is empty, no
              workbook is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path to a .png chart of the domain-mean
              monthly fluxes. If it is empty, no chart is drawn.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ManifestFile",
			usage: `
              ManifestFile is the path to a TOML file recording the run
              configuration, a hash of the input data, and summary
              statistics of the outputs. If it is empty, no manifest is
              written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BUDYKO")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("budyko: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "budyko",
	Short: "A monthly water balance model.",
	Long: `budyko is a gridded monthly water balance model. It estimates net radiation
from temperature and latitude, potential evaporation with the Priestley-Taylor
equation, and actual evaporation and runoff with a Budyko-curve soil water
bucket that is cycled through several years to reach equilibrium.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BUDYKO_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of budyko.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("budyko v%s (data v%s)\n", budyko.Version, budyko.DataVersion)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run loads the input grids, simulates NumYears annual cycles of the
soil water bucket in every grid cell, and saves the monthly fluxes of the
final year.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := inputConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		outputVars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		outputVars = checkOutputVars(outputVars)
		numYears, err := checkNumYears(Cfg.GetInt("NumYears"))
		if err != nil {
			return err
		}
		exponent, err := checkBucketExponent(Cfg.GetFloat64("BucketExponent"))
		if err != nil {
			return err
		}
		if n := Cfg.GetInt("NumProcessors"); n > 0 {
			runtime.GOMAXPROCS(n)
		}
		reports, err := checkReportFiles(
			Cfg.GetString("ReportFile"),
			Cfg.GetString("PlotFile"),
			Cfg.GetString("ManifestFile"),
		)
		if err != nil {
			return err
		}
		reports.Settings = Cfg.AllSettings()

		return Run(
			context.TODO(),
			cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			outputFile,
			os.ExpandEnv(Cfg.GetString("OutputASCIIDir")),
			outputVars,
			inputs,
			numYears,
			exponent,
			reports,
		)
	},
	DisableAutoGenTag: true,
}
