package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-fitty/internal/config"
)

// configFlags binds the command line layer of the configuration. Only
// flags the user changed end up in the layer.
type configFlags struct {
	path            string
	layer           config.Config
	verbose         bool
	updateReference bool
}

func (f *configFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.path, "config", "c", "", "HCL configuration file")
	fs.StringVarP(&f.layer.Params, "params", "p", "", "reference parameter file")
	fs.StringVar(&f.layer.Aux, "aux", "", "auxiliary parameter file (default <params>.out)")
	fs.StringVar(&f.layer.Priority, "priority", "", "source priority: newer, reference or auxiliary")
	fs.StringVar(&f.layer.InputFormat, "input-format", "", "input grammar: detect, v1 or v2")
	fs.StringVar(&f.layer.ImportPolicy, "import-policy", "", "malformed line handling: abort or skip")
	fs.StringVar(&f.layer.Engine, "engine", "", "formula engine: expr, cel or js")
	fs.StringVar(&f.layer.NameDecorator, "name-decorator", "", "pattern mapping histogram names to entry names")
	fs.StringVar(&f.layer.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.layer.LogFormat, "log-format", "", "log format: text or json")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every fit attempt at info level")
}

func (f *configFlags) registerFit(fs *pflag.FlagSet) {
	fs.StringVarP(&f.layer.Data, "data", "d", "", "SQLite histogram store to fit")
	fs.StringVarP(&f.layer.Output, "output", "o", "", "SQLite store receiving fitted histograms")
	fs.StringVar(&f.layer.OutputFormat, "output-format", "", "export grammar: v1 or v2")
	fs.StringVar(&f.layer.FunctionDecorator, "function-decorator", "", "pattern naming fitted functions")
	fs.StringVar(&f.layer.FitOptions, "fit-options", "", "options passed to the minimizer")
	fs.StringVar(&f.layer.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	fs.BoolVar(&f.updateReference, "update-reference", false, "export to the reference file instead of the auxiliary one")
}

// load merges the flag layer over the environment, the config file and
// the defaults.
func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	layer := f.layer
	if cmd.Flags().Changed("verbose") {
		layer.Verbose = &f.verbose
	}
	if cmd.Flags().Changed("update-reference") {
		layer.UpdateReference = &f.updateReference
	}
	return config.Load(f.path, layer)
}
