//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding configuration values, e.g.,
// NULLAWAY_SYNTACTIC_FIELD_ANALYSIS=true.
const EnvPrefix = "NULLAWAY"

// maxConfigFileSize bounds the configuration file read into memory.
const maxConfigFileSize = 1 << 20

//go:embed config_schema.cue
var configSchema string

// Load builds the configuration from the defaults, the optional CUE (or JSON) file at path and the
// environment, then validates it. An empty path loads the defaults and the environment only.
func Load(ctx context.Context, path string) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, fmt.Errorf("load configuration %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("annotations.nonnull", d.Annotations.NonNull)
	v.SetDefault("annotations.nullable", d.Annotations.Nullable)
	v.SetDefault("annotations.nonnull_by_default", d.Annotations.NonNullByDefault)
	v.SetDefault("annotations.secondary_nonnull", d.Annotations.SecondaryNonNull)
	v.SetDefault("annotations.secondary_nullable", d.Annotations.SecondaryNullable)
	v.SetDefault("annotations.secondary_nonnull_by_default", d.Annotations.SecondaryNonNullByDefault)
	v.SetDefault("severities", map[string]any{})
	v.SetDefault("syntactic_field_analysis", d.SyntacticFieldAnalysis)
	v.SetDefault("suppress_optional_errors", d.SuppressOptionalErrors)
	v.SetDefault("inherit_null_annotations", d.InheritNullAnnotations)
	v.SetDefault("require_explicit_default", d.RequireExplicitDefault)
	v.SetDefault("injection_annotations", d.InjectionAnnotations)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema, and merges its
// contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("config file %s is too large (%d bytes)", path, len(data))
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError renders every error of a CUE error list with its position, one per line.
func formatCUEError(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.TrimSpace(cueerrors.Details(err, nil)))
}
