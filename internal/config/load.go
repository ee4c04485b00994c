package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FITTY_"

// LoadFile decodes an HCL configuration file. Expressions may read the
// process environment through the env object, e.g. env.HOME.
func LoadFile(path string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, evalContext(os.Environ()), &cfg)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return cfg, nil
}

// LoadEnv reads the FITTY_* variables from environ. A nil environ reads the
// process environment.
func LoadEnv(environ []string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = envMap(environ)
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load merges, strongest first, the flag layer, the environment, the
// optional HCL file at path and the defaults.
func Load(path string, flags Config) (Config, error) {
	envLayer, err := LoadEnv(nil)
	if err != nil {
		return Config{}, err
	}
	var fileLayer Config
	if path != "" {
		if fileLayer, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	return Merge(flags, envLayer, fileLayer, Defaults()), nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for key, value := range envMap(environ) {
		vars[key] = cty.StringVal(value)
	}
	envVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		envVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
	}
}

func envMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
