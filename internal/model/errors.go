package model

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the errors a request or startup can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnknownCategory
	KindSchema
	KindArtifactLoad
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindUnknownCategory:
		return "unknown_category"
	case KindSchema:
		return "schema"
	case KindArtifactLoad:
		return "artifact_load"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// KindOf reports the Kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// UnknownCategoryError is returned when a label is not in an encoder's known set.
type UnknownCategoryError struct {
	Field Field
	Value string
	// ValidChoices is shared with the encoder and must not be modified.
	ValidChoices []string
	// Row is the 1-based data row for batch input, 0 for single records.
	Row int
}

func (e *UnknownCategoryError) Error() string {
	loc := ""
	if e.Row > 0 {
		loc = fmt.Sprintf(" (row %d)", e.Row)
	}
	return fmt.Sprintf("unknown %s %q%s: not seen in training data", e.Field, e.Value, loc)
}

func (e *UnknownCategoryError) Kind() Kind { return KindUnknownCategory }

// SchemaError is returned when a batch table does not match the expected columns
// or a cell cannot be coerced to the column's type.
type SchemaError struct {
	Missing []string // required columns absent from the header
	Detail  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return "schema: missing required columns: " + strings.Join(e.Missing, ", ")
	}
	return "schema: " + e.Detail
}

func (e *SchemaError) Kind() Kind { return KindSchema }

// ArtifactLoadError is returned when a persisted model, encoder, or feature list
// cannot be read or is inconsistent with the others.
type ArtifactLoadError struct {
	Artifact string // "model", "encoder State", "features", "manifest", ...
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s (%s): %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

func (e *ArtifactLoadError) Kind() Kind { return KindArtifactLoad }

// InputError is returned when a single record fails type coercion or bounds.
type InputError struct {
	Name   string // input name, e.g. "Year"
	Reason string
	Err    error // optional cause
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Kind() Kind { return KindInvalidInput }
