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

// Package config implements the configuration of the nullness checker: the recognized annotation
// names, the per-category severities and the analysis switches.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Severity is the configured severity of a diagnostic category.
type Severity string

const (
	// SeverityError reports the diagnostic as an error.
	SeverityError Severity = "error"
	// SeverityWarning reports the diagnostic as a warning.
	SeverityWarning Severity = "warning"
	// SeverityInfo reports the diagnostic as an informational message.
	SeverityInfo Severity = "info"
	// SeverityIgnore drops the diagnostic and, where feasible, skips its detection.
	SeverityIgnore Severity = "ignore"
)

// IsValid returns true for the four known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo, SeverityIgnore:
		return true
	}
	return false
}

var (
	// ErrInvalidConfig is the sentinel error wrapped by every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnqualifiedAnnotationName is returned when a configured annotation name is not fully
	// qualified.
	ErrUnqualifiedAnnotationName = errors.New("annotation name must be fully qualified")
)

// Default annotation names, matching the Eclipse JDT null annotations.
const (
	DefaultNonNull          = "org.eclipse.jdt.annotation.NonNull"
	DefaultNullable         = "org.eclipse.jdt.annotation.Nullable"
	DefaultNonNullByDefault = "org.eclipse.jdt.annotation.NonNullByDefault"
)

// Annotations holds the recognized null annotation names. Secondary names are recognized exactly
// like the primary ones, so that code annotated for another tool is understood.
type Annotations struct {
	NonNull                   string   `json:"nonnull" mapstructure:"nonnull"`
	Nullable                  string   `json:"nullable" mapstructure:"nullable"`
	NonNullByDefault          string   `json:"nonnull_by_default" mapstructure:"nonnull_by_default"`
	SecondaryNonNull          []string `json:"secondary_nonnull,omitempty" mapstructure:"secondary_nonnull"`
	SecondaryNullable         []string `json:"secondary_nullable,omitempty" mapstructure:"secondary_nullable"`
	SecondaryNonNullByDefault []string `json:"secondary_nonnull_by_default,omitempty" mapstructure:"secondary_nonnull_by_default"`
}

// Config is the complete checker configuration.
type Config struct {
	// Enabled turns every diagnostic of the checker on or off, including redundancy diagnostics.
	Enabled     bool        `json:"enabled" mapstructure:"enabled"`
	Annotations Annotations `json:"annotations" mapstructure:"annotations"`
	// Severities overrides the default severity per diagnostic category. Keys are category names
	// and are matched case-insensitively.
	Severities map[string]Severity `json:"severities,omitempty" mapstructure:"severities"`
	// SyntacticFieldAnalysis enables tracking of field access paths between a null check and the
	// next statement that may invalidate it.
	SyntacticFieldAnalysis bool `json:"syntactic_field_analysis" mapstructure:"syntactic_field_analysis"`
	// SuppressOptionalErrors lets @SuppressWarnings also suppress configurable errors.
	SuppressOptionalErrors bool `json:"suppress_optional_errors" mapstructure:"suppress_optional_errors"`
	// InheritNullAnnotations fills unannotated parameters and returns of overriding methods from
	// the overridden method.
	InheritNullAnnotations bool `json:"inherit_null_annotations" mapstructure:"inherit_null_annotations"`
	// RequireExplicitDefault reports top-level types whose scope chain declares no default.
	RequireExplicitDefault bool `json:"require_explicit_default" mapstructure:"require_explicit_default"`
	// InjectionAnnotations are the markers of injected fields, which are exempt from the
	// initialization check.
	InjectionAnnotations []string `json:"injection_annotations" mapstructure:"injection_annotations"`
}

// DefaultInjectionAnnotations are the injection markers recognized out of the box.
var DefaultInjectionAnnotations = []string{
	"javax.inject.Inject",
	"jakarta.inject.Inject",
	"com.google.inject.Inject",
	"org.springframework.beans.factory.annotation.Autowired",
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Annotations: Annotations{
			NonNull:          DefaultNonNull,
			Nullable:         DefaultNullable,
			NonNullByDefault: DefaultNonNullByDefault,
		},
		InjectionAnnotations: slices.Clone(DefaultInjectionAnnotations),
	}
}

// Validate checks the constraints the schema cannot express and the ones of configurations built
// in code. All violations are reported, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	check := func(field, name string) {
		if err := validateQualifiedName(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err))
		}
	}
	check("annotations.nonnull", c.Annotations.NonNull)
	check("annotations.nullable", c.Annotations.Nullable)
	check("annotations.nonnull_by_default", c.Annotations.NonNullByDefault)
	for i, n := range c.Annotations.SecondaryNonNull {
		check(fmt.Sprintf("annotations.secondary_nonnull[%d]", i), n)
	}
	for i, n := range c.Annotations.SecondaryNullable {
		check(fmt.Sprintf("annotations.secondary_nullable[%d]", i), n)
	}
	for i, n := range c.Annotations.SecondaryNonNullByDefault {
		check(fmt.Sprintf("annotations.secondary_nonnull_by_default[%d]", i), n)
	}
	for i, n := range c.InjectionAnnotations {
		check(fmt.Sprintf("injection_annotations[%d]", i), n)
	}

	if c.Annotations.NonNull != "" && c.Annotations.NonNull == c.Annotations.Nullable {
		errs = append(errs, fmt.Errorf("%w: annotations.nonnull and annotations.nullable are both %q",
			ErrInvalidConfig, c.Annotations.NonNull))
	}
	for _, n := range c.Annotations.SecondaryNonNull {
		if n == c.Annotations.Nullable || slices.Contains(c.Annotations.SecondaryNullable, n) {
			errs = append(errs, fmt.Errorf("%w: %q is configured as both nonnull and nullable", ErrInvalidConfig, n))
		}
	}

	// Sorted for deterministic error messages.
	keys := make([]string, 0, len(c.Severities))
	for k := range c.Severities {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if s := c.Severities[k]; !s.IsValid() {
			errs = append(errs, fmt.Errorf("%w: severities.%s: unknown severity %q", ErrInvalidConfig, k, s))
		}
	}
	return errors.Join(errs...)
}

// validateQualifiedName checks that name is a dotted sequence of at least two identifiers.
func validateQualifiedName(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return fmt.Errorf("%w: %q", ErrUnqualifiedAnnotationName, name)
	}
	for _, p := range parts {
		if !isIdentifier(p) {
			return fmt.Errorf("%w: %q", ErrUnqualifiedAnnotationName, name)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !letter && !(i > 0 && digit) {
			return false
		}
	}
	return true
}

// NonNullNames returns every name recognized as the NonNull tag.
func (a *Annotations) NonNullNames() []string {
	return append([]string{a.NonNull}, a.SecondaryNonNull...)
}

// NullableNames returns every name recognized as the Nullable tag.
func (a *Annotations) NullableNames() []string {
	return append([]string{a.Nullable}, a.SecondaryNullable...)
}

// NonNullByDefaultNames returns every name recognized as a default annotation.
func (a *Annotations) NonNullByDefaultNames() []string {
	return append([]string{a.NonNullByDefault}, a.SecondaryNonNullByDefault...)
}
