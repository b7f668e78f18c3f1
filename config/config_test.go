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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nullaway.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	want := DefaultConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, want.Annotations.NonNull, cfg.Annotations.NonNull)
	require.Equal(t, want.Annotations.Nullable, cfg.Annotations.Nullable)
	require.Equal(t, want.Annotations.NonNullByDefault, cfg.Annotations.NonNullByDefault)
	require.Equal(t, want.InjectionAnnotations, cfg.InjectionAnnotations)
	require.Empty(t, cfg.Severities)
	require.False(t, cfg.SyntacticFieldAnalysis)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
enabled: true
annotations: {
	nonnull:  "javax.annotation.Nonnull"
	nullable: "javax.annotation.CheckForNull"
	secondary_nullable: ["org.jspecify.annotations.Nullable"]
}
severities: {
	NullTypeMismatch:  "warning"
	RedundantNullCheck: "ignore"
}
syntactic_field_analysis: true
`)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "javax.annotation.Nonnull", cfg.Annotations.NonNull)
	require.Equal(t, "javax.annotation.CheckForNull", cfg.Annotations.Nullable)
	require.Equal(t, DefaultNonNullByDefault, cfg.Annotations.NonNullByDefault, "unset fields keep their defaults")
	require.Equal(t, []string{"javax.annotation.CheckForNull", "org.jspecify.annotations.Nullable"}, cfg.Annotations.NullableNames())
	require.True(t, cfg.SyntacticFieldAnalysis)
	require.False(t, cfg.SuppressOptionalErrors)
	require.Len(t, cfg.Severities, 2)
	for k, v := range cfg.Severities {
		switch k {
		case "nulltypemismatch", "NullTypeMismatch":
			require.Equal(t, SeverityWarning, v)
		default:
			require.Equal(t, SeverityIgnore, v, k)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NULLAWAY_SYNTACTIC_FIELD_ANALYSIS", "true")
	t.Setenv("NULLAWAY_ENABLED", "false")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	require.True(t, cfg.SyntacticFieldAnalysis)
	require.False(t, cfg.Enabled)
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unqualified name", content: `annotations: nonnull: "NonNull"`, want: "annotations.nonnull"},
		{name: "unknown severity", content: `severities: NullTypeMismatch: "fatal"`, want: "severities.NullTypeMismatch"},
		{name: "unknown field", content: `colour: true`, want: "colour"},
		{name: "wrong type", content: `enabled: "yes"`, want: "enabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.cue"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Annotations.Nullable = "Nullable"
	cfg.Annotations.SecondaryNonNull = []string{"a..b"}
	cfg.InjectionAnnotations = append(cfg.InjectionAnnotations, "Inject")
	cfg.Severities = map[string]Severity{"NullTypeMismatch": "fatal"}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, ErrUnqualifiedAnnotationName)
	require.ErrorContains(t, err, `annotations.nullable: annotation name must be fully qualified: "Nullable"`)
	require.ErrorContains(t, err, `annotations.secondary_nonnull[0]`)
	require.ErrorContains(t, err, `injection_annotations[4]`)
	require.ErrorContains(t, err, `unknown severity "fatal"`)

	same := DefaultConfig()
	same.Annotations.Nullable = same.Annotations.NonNull
	require.ErrorContains(t, same.Validate(), "are both")
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
