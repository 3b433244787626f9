package model

import (
	"fmt"
	"math"
	"strconv"
)

// Record is a single human-readable prediction input.
type Record struct {
	Year     int
	Area     float64 // hectares
	State    string
	District string
	Crop     string
	Season   string
}

// Label returns the record's raw label for the given categorical field.
func (r Record) Label(f Field) string {
	switch f {
	case FieldState:
		return r.State
	case FieldDistrict:
		return r.District
	case FieldCrop:
		return r.Crop
	case FieldSeason:
		return r.Season
	}
	return ""
}

// Encoded is a Record after categorical encoding. Codes are indexed by Field.
type Encoded struct {
	Year  float64
	Area  float64
	Codes [4]int
}

// Prediction is an estimated crop production in tonnes.
type Prediction float64

// Display renders the prediction rounded to two decimal places.
func (p Prediction) Display() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

// Bounds the interactive form enforces on single records.
const (
	MinYear = 2000
	MaxYear = 2035
)

// Validate checks the bounds applied to interactively entered records.
func (r Record) Validate() error {
	if r.Year < MinYear || r.Year > MaxYear {
		return &InputError{Name: "Year", Reason: fmt.Sprintf("must be between %d and %d", MinYear, MaxYear)}
	}
	if math.IsNaN(r.Area) || math.IsInf(r.Area, 0) {
		return &InputError{Name: "Area", Reason: "must be a finite number"}
	}
	if r.Area < 0 {
		return &InputError{Name: "Area", Reason: "must be zero or greater"}
	}
	for _, f := range Fields {
		if r.Label(f) == "" {
			return &InputError{Name: f.String(), Reason: "is required"}
		}
	}
	return nil
}
