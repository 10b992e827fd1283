/*
Copyright © 2017 the fwxgrid authors.
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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ctessum/fwxgrid/weather"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfg binds persistent flags and an optional config file to a viper
// instance, mirroring the teacher's Cfg.Viper composition pattern
// (inmaputil/cmd.go), scoped down to the handful of knobs this thin CLI
// wrapper actually exposes.
var cfg = viper.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fwxctl",
		Short: "Evaluate and import Fire Weather Index station data",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				cfg.SetConfigFile(path)
				if err := cfg.ReadInConfig(); err != nil {
					return fmt.Errorf("fwxctl: reading config: %w", err)
				}
			}
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "optional YAML/TOML/JSON configuration file of attribute overrides")

	root.AddCommand(newQueryCmd(), newImportCmd())
	return root
}

func newQueryCmd() *cobra.Command {
	var input, timeStr string
	var lawson bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate the calculated weather/FWI state for a single station stream at a point in time",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("fwxctl query: %w", err)
			}
			defer f.Close()

			t, err := time.Parse(time.RFC3339, timeStr)
			if err != nil {
				return fmt.Errorf("fwxctl query: bad --time %q: %w", timeStr, err)
			}

			s := weather.NewStream(time.UTC)
			if lawson {
				s.Method = weather.FFMCLawson
			}
			if err := applyConfigAttributes(s, cfg); err != nil {
				return fmt.Errorf("fwxctl query: %w", err)
			}
			validator, err := s.Import(f, weather.ImportPurge, time.UTC)
			if err != nil {
				return fmt.Errorf("fwxctl query: %w", err)
			}
			for _, w := range validator.Warnings() {
				fmt.Fprintln(os.Stderr, "warning:", w.String())
			}
			s.Recalculate(0)

			wx, ifwi, dfwi, err := s.GetInstantaneous(t, weather.InterpolateTemporal)
			if err != nil {
				return fmt.Errorf("fwxctl query: %w", err)
			}
			fmt.Printf("time:        %s\n", t.Format(time.RFC3339))
			fmt.Printf("temperature: %.2f C\n", wx.Temperature)
			fmt.Printf("rh:          %.1f %%\n", wx.RH*100)
			fmt.Printf("wind:        %.1f km/h @ %.0f deg\n", wx.WindSpeed, wx.WindDirection*180/3.14159265)
			fmt.Printf("precip:      %.2f mm\n", wx.Precip)
			fmt.Printf("FFMC:        %.2f (hourly) / %.2f (daily)\n", ifwi.FFMC.Calculated, dfwi.FFMC.Calculated)
			fmt.Printf("ISI:         %.2f (hourly) / %.2f (daily)\n", ifwi.ISI.Calculated, dfwi.ISI.Calculated)
			fmt.Printf("FWI:         %.2f (hourly) / %.2f (daily)\n", ifwi.FWI.Calculated, dfwi.FWI.Calculated)
			fmt.Printf("DMC:         %.2f\n", dfwi.DMC.Calculated)
			fmt.Printf("DC:          %.2f\n", dfwi.DC.Calculated)
			fmt.Printf("BUI:         %.2f\n", dfwi.BUI.Calculated)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "path to a daily or hourly station CSV (required)")
	cmd.Flags().StringVar(&timeStr, "time", "", "RFC3339 timestamp to evaluate (required)")
	cmd.Flags().BoolVar(&lawson, "lawson", false, "use the Lawson-contiguous hourly FFMC method instead of Van Wagner")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("time")
	return cmd
}

// configAttributes maps the --config file's top-level keys to the stream
// attribute codes they override, applied before Import so starting codes
// and diurnal-curve shape are in effect for the whole recalculation.
var configAttributes = map[string]weather.AttributeCode{
	"initial_ffmc":   weather.AttrInitialFFMC,
	"initial_dmc":    weather.AttrInitialDMC,
	"initial_dc":     weather.AttrInitialDC,
	"initial_bui":    weather.AttrInitialBUI,
	"initial_rain":   weather.AttrInitialRain,
	"temp_alpha":     weather.AttrTempAlpha,
	"temp_beta":      weather.AttrTempBeta,
	"temp_gamma":     weather.AttrTempGamma,
	"wind_alpha":     weather.AttrWindAlpha,
	"wind_beta":      weather.AttrWindBeta,
	"wind_gamma":     weather.AttrWindGamma,
}

// applyConfigAttributes sets every attribute override present in cfg on s,
// in a fixed key order so a given config file always applies identically.
func applyConfigAttributes(s *weather.Stream, cfg *viper.Viper) error {
	for _, key := range []string{
		"initial_ffmc", "initial_dmc", "initial_dc", "initial_bui", "initial_rain",
		"temp_alpha", "temp_beta", "temp_gamma", "wind_alpha", "wind_beta", "wind_gamma",
	} {
		if !cfg.IsSet(key) {
			continue
		}
		if err := s.SetAttribute(configAttributes[key], cfg.GetFloat64(key)); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}
	return nil
}

func newImportCmd() *cobra.Command {
	var input string
	var overwrite, appendMode bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a station stream file and report any validation warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("fwxctl import: %w", err)
			}
			defer f.Close()

			opt := weather.ImportPurge
			switch {
			case overwrite:
				opt = weather.ImportOverwrite
			case appendMode:
				opt = weather.ImportAppend
			}

			s := weather.NewStream(time.UTC)
			validator, err := s.Import(f, opt, time.UTC)
			if err != nil {
				return fmt.Errorf("fwxctl import: %w", err)
			}
			if !validator.HasWarnings() {
				fmt.Println("import succeeded with no warnings")
				return nil
			}
			for _, w := range validator.Warnings() {
				fmt.Println(w.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "path to a daily or hourly station CSV (required)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "permit replacing overlapping existing data")
	cmd.Flags().BoolVar(&appendMode, "append", false, "require the import to contiguously extend existing data")
	cmd.MarkFlagRequired("input")
	return cmd
}
