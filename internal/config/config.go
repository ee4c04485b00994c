// Package config assembles the fitty command configuration from an HCL
// file, FITTY_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	fitty "github.com/goliatone/go-fitty"
	"github.com/goliatone/go-fitty/formula"
)

// ErrMissingPath reports a required path left empty by every layer.
var ErrMissingPath = errors.New("config: missing required path")

// Config is one configuration layer. Empty strings and nil pointers mean
// "not set" so weaker layers can fill them in.
type Config struct {
	Data              string      `hcl:"data,optional" env:"DATA"`
	Params            string      `hcl:"params,optional" env:"PARAMS"`
	Aux               string      `hcl:"aux,optional" env:"AUX"`
	Output            string      `hcl:"output,optional" env:"OUTPUT"`
	Priority          string      `hcl:"priority,optional" env:"PRIORITY"`
	InputFormat       string      `hcl:"input_format,optional" env:"INPUT_FORMAT"`
	OutputFormat      string      `hcl:"output_format,optional" env:"OUTPUT_FORMAT"`
	ImportPolicy      string      `hcl:"import_policy,optional" env:"IMPORT_POLICY"`
	Engine            string      `hcl:"engine,optional" env:"ENGINE"`
	NameDecorator     string      `hcl:"name_decorator,optional" env:"NAME_DECORATOR"`
	FunctionDecorator string      `hcl:"function_decorator,optional" env:"FUNCTION_DECORATOR"`
	FitOptions        string      `hcl:"fit_options,optional" env:"FIT_OPTIONS"`
	LogLevel          string      `hcl:"log_level,optional" env:"LOG_LEVEL"`
	LogFormat         string      `hcl:"log_format,optional" env:"LOG_FORMAT"`
	MetricsFile       string      `hcl:"metrics_file,optional" env:"METRICS_FILE"`
	Actor             string      `hcl:"actor,optional" env:"ACTOR"`
	Tenant            string      `hcl:"tenant,optional" env:"TENANT"`
	Verbose           *bool       `hcl:"verbose,optional" env:"VERBOSE"`
	UpdateReference   *bool       `hcl:"update_reference,optional" env:"UPDATE_REFERENCE"`
	Default           *EntryBlock `hcl:"default,block"`
}

// EntryBlock declares the fallback entry used for histograms without a
// matching parameter line.
type EntryBlock struct {
	Formulas []string `hcl:"formulas"`
	Min      float64  `hcl:"min"`
	Max      float64  `hcl:"max"`
	Rebin    int      `hcl:"rebin,optional"`
	Params   string   `hcl:"params,optional"`
}

// Defaults is the weakest layer.
func Defaults() Config {
	return Config{
		Priority:          fitty.PreferNewer.String(),
		InputFormat:       fitty.FormatDetect.String(),
		OutputFormat:      fitty.FormatV2.String(),
		ImportPolicy:      fitty.ImportAbort.String(),
		Engine:            formula.EngineExpr,
		NameDecorator:     fitty.DefaultNameDecorator,
		FunctionDecorator: fitty.DefaultFunctionDecorator,
		LogLevel:          "info",
		LogFormat:         "text",
		Verbose:           boolPtr(false),
		UpdateReference:   boolPtr(false),
	}
}

// AuxPath returns the auxiliary parameter file, defaulting to
// "<params>.out".
func (c Config) AuxPath() string {
	if c.Aux != "" {
		return c.Aux
	}
	if c.Params == "" {
		return ""
	}
	return c.Params + ".out"
}

// Validate checks that the paths a fit run needs are present.
func (c Config) Validate() error {
	var missing []string
	if c.Data == "" {
		missing = append(missing, "data")
	}
	if c.Params == "" {
		missing = append(missing, "params")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingPath, strings.Join(missing, ", "))
	}
	return nil
}

// Entry builds the fallback entry. Without params the entry keeps zero
// valued free parameters; otherwise the block is parsed as a v2 line and
// must list a group for every parameter.
func (b EntryBlock) Entry(name string, engine formula.Engine) (*fitty.FitEntry, error) {
	if strings.TrimSpace(b.Params) != "" {
		return fitty.ParseLineEntry(b.Line(name), fitty.FormatV2, engine)
	}
	entry, err := fitty.NewFitEntry(name, b.Min, b.Max, b.Formulas, engine)
	if err != nil {
		return nil, err
	}
	if b.Rebin < 0 {
		return nil, fmt.Errorf("config: default rebin %d is negative", b.Rebin)
	}
	entry.Rebin = b.Rebin
	return entry, nil
}

// Line renders the block as a v2 parameter line named name.
func (b EntryBlock) Line(name string) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(b.Min, 'g', -1, 64))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(b.Max, 'g', -1, 64))
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(b.Rebin))
	for _, f := range b.Formulas {
		sb.WriteString(" ")
		sb.WriteString(f)
	}
	sb.WriteString(" |")
	if params := strings.TrimSpace(b.Params); params != "" {
		sb.WriteString(" ")
		sb.WriteString(params)
	}
	return sb.String()
}

// Options translates the merged configuration into fitter options.
func (c Config) Options() ([]fitty.Option, error) {
	priority, err := fitty.ParsePriorityMode(c.Priority)
	if err != nil {
		return nil, err
	}
	input, err := fitty.ParseFormatVersion(c.InputFormat)
	if err != nil {
		return nil, err
	}
	output, err := fitty.ParseFormatVersion(c.OutputFormat)
	if err != nil {
		return nil, err
	}
	policy, err := fitty.ParseImportPolicy(c.ImportPolicy)
	if err != nil {
		return nil, err
	}

	opts := []fitty.Option{
		fitty.WithPriority(priority),
		fitty.WithInputFormat(input),
		fitty.WithOutputFormat(output),
		fitty.WithImportPolicy(policy),
		fitty.WithEngineName(c.Engine),
		fitty.WithVerbose(c.Verbose != nil && *c.Verbose),
		fitty.WithActivityIdentity(c.Actor, c.Tenant),
	}
	if c.NameDecorator != "" {
		opts = append(opts, fitty.WithNameDecorator(c.NameDecorator))
	}
	if c.FunctionDecorator != "" {
		opts = append(opts, fitty.WithFunctionDecorator(c.FunctionDecorator))
	}
	return opts, nil
}

func boolPtr(v bool) *bool { return &v }
