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

package diagnostic

import (
	"strings"

	"go.uber.org/nullaway/config"
)

// Kind is the category of a diagnostic. The declaration order is the order in which diagnostics
// reported at the same position are emitted.
type Kind uint8

const (
	// ContradictoryNullSpecification is reported when both tags are given at one location.
	ContradictoryNullSpecification Kind = iota
	// IllegalAnnotationLocation is reported for a null tag on a type declaration.
	IllegalAnnotationLocation
	// IllegalAnnotationForType is reported for a null tag on a primitive type or void.
	IllegalAnnotationForType
	// MissingDefaultAnnotationOnScope is reported for a top-level type without any default when
	// explicit defaults are required.
	MissingDefaultAnnotationOnScope
	// RedundantNullnessDefault is reported for a default repeating the one of an enclosing scope.
	RedundantNullnessDefault
	// RedundantNullnessAnnotation is reported for a tag repeating the applicable default.
	RedundantNullnessAnnotation
	// IllegalParameterRedefinition is reported when an override narrows a parameter to NonNull.
	IllegalParameterRedefinition
	// MissingNonNullParameterAnnotation is reported when an override drops a NonNull parameter.
	MissingNonNullParameterAnnotation
	// IncompatibleReturnNullness is reported when an override weakens a NonNull return.
	IncompatibleReturnNullness
	// IncompatibleInheritedContracts is reported when a type inherits conflicting contracts
	// without overriding the method.
	IncompatibleInheritedContracts
	// PossiblyUninitializedNonNullField is reported when a NonNull field may be left unassigned.
	PossiblyUninitializedNonNullField
	// NullPointerAccess is reported for a dereference of a value that is null on every path.
	NullPointerAccess
	// PotentialNullPointerAccess is reported for a dereference of a value that may be null.
	PotentialNullPointerAccess
	// NullTypeMismatch is reported when a null or Nullable value flows into a NonNull sink.
	NullTypeMismatch
	// UncheckedNullConversion is reported when an unspecified value flows into a NonNull sink.
	UncheckedNullConversion
	// RedundantNullCheck is reported for a null check of a value known to be non-null.
	RedundantNullCheck
	// NullComparisonAlwaysTrue is reported for a comparison whose outcome is known to be true.
	NullComparisonAlwaysTrue
	// NullComparisonAlwaysFalse is reported for a comparison whose outcome is known to be false.
	NullComparisonAlwaysFalse
	// InternalError is reported when the analysis of a unit failed unexpectedly.
	InternalError

	numKinds
)

var _kindNames = [numKinds]string{
	ContradictoryNullSpecification:    "ContradictoryNullSpecification",
	IllegalAnnotationLocation:         "IllegalAnnotationLocation",
	IllegalAnnotationForType:          "IllegalAnnotationForType",
	MissingDefaultAnnotationOnScope:   "MissingDefaultAnnotationOnScope",
	RedundantNullnessDefault:          "RedundantNullnessDefault",
	RedundantNullnessAnnotation:       "RedundantNullnessAnnotation",
	IllegalParameterRedefinition:      "IllegalParameterRedefinition",
	MissingNonNullParameterAnnotation: "MissingNonNullParameterAnnotation",
	IncompatibleReturnNullness:        "IncompatibleReturnNullness",
	IncompatibleInheritedContracts:    "IncompatibleInheritedContracts",
	PossiblyUninitializedNonNullField: "PossiblyUninitializedNonNullField",
	NullPointerAccess:                 "NullPointerAccess",
	PotentialNullPointerAccess:        "PotentialNullPointerAccess",
	NullTypeMismatch:                  "NullTypeMismatch",
	UncheckedNullConversion:           "UncheckedNullConversion",
	RedundantNullCheck:                "RedundantNullCheck",
	NullComparisonAlwaysTrue:          "NullComparisonAlwaysTrue",
	NullComparisonAlwaysFalse:         "NullComparisonAlwaysFalse",
	InternalError:                     "InternalError",
}

var _defaultSeverities = [numKinds]Severity{
	ContradictoryNullSpecification:    SeverityError,
	IllegalAnnotationLocation:         SeverityError,
	IllegalAnnotationForType:          SeverityError,
	MissingDefaultAnnotationOnScope:   SeverityWarning,
	RedundantNullnessDefault:          SeverityWarning,
	RedundantNullnessAnnotation:       SeverityWarning,
	IllegalParameterRedefinition:      SeverityError,
	MissingNonNullParameterAnnotation: SeverityWarning,
	IncompatibleReturnNullness:        SeverityError,
	IncompatibleInheritedContracts:    SeverityError,
	PossiblyUninitializedNonNullField: SeverityError,
	NullPointerAccess:                 SeverityError,
	PotentialNullPointerAccess:        SeverityWarning,
	NullTypeMismatch:                  SeverityError,
	UncheckedNullConversion:           SeverityWarning,
	RedundantNullCheck:                SeverityWarning,
	NullComparisonAlwaysTrue:          SeverityWarning,
	NullComparisonAlwaysFalse:         SeverityWarning,
	InternalError:                     SeverityError,
}

func (k Kind) String() string {
	if k < numKinds {
		return _kindNames[k]
	}
	return "Unknown"
}

// DefaultSeverity returns the severity of the kind when no configuration overrides it.
func (k Kind) DefaultSeverity() Severity {
	if k < numKinds {
		return _defaultSeverities[k]
	}
	return SeverityError
}

// Optional returns true if errors of this kind may be suppressed by @SuppressWarnings when
// optional errors are suppressible. Malformed annotations and internal errors are mandatory.
func (k Kind) Optional() bool {
	switch k {
	case ContradictoryNullSpecification, IllegalAnnotationLocation, IllegalAnnotationForType, InternalError:
		return false
	}
	return true
}

// ParseKind returns the kind with the given name, matched case-insensitively since configuration
// keys may have been lower-cased by the loader.
func ParseKind(name string) (Kind, bool) {
	for k, n := range _kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every kind in emission order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Severity is the severity a diagnostic is reported with.
type Severity uint8

const (
	// SeverityIgnore drops the diagnostic.
	SeverityIgnore Severity = iota
	// SeverityInfo is for informational diagnostics.
	SeverityInfo
	// SeverityWarning is for warnings.
	SeverityWarning
	// SeverityError is for errors.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityIgnore:
		return "IGNORE"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	}
	return "UNKNOWN"
}

func severityFromConfig(s config.Severity) (Severity, bool) {
	switch s {
	case config.SeverityIgnore:
		return SeverityIgnore, true
	case config.SeverityInfo:
		return SeverityInfo, true
	case config.SeverityWarning:
		return SeverityWarning, true
	case config.SeverityError:
		return SeverityError, true
	}
	return SeverityIgnore, false
}
