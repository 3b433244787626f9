package model

import "fmt"

// Field identifies one of the categorical inputs the model was trained on.
type Field int

const (
	FieldState    Field = iota // region A
	FieldDistrict              // region B
	FieldCrop
	FieldSeason
)

// Fields lists every categorical field in presentation order.
var Fields = []Field{FieldState, FieldDistrict, FieldCrop, FieldSeason}

// String returns the canonical column name for the field.
func (f Field) String() string {
	switch f {
	case FieldState:
		return "State"
	case FieldDistrict:
		return "District"
	case FieldCrop:
		return "Crop"
	case FieldSeason:
		return "Season"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField maps a column name ("State", "District", "Crop", "Season") to a Field.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown categorical field %q", s)
}
