// Package features binds a model's declared feature order to named record
// slots and assembles feature vectors in that order.
package features

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crimson-sun/cropcast/internal/model"
)

// Slot is a named position in a feature record.
type Slot int

const (
	SlotYear Slot = iota
	SlotArea
	SlotState
	SlotDistrict
	SlotCrop
	SlotSeason
	numSlots
)

var slotNames = [numSlots]string{"year", "area", "state", "district", "crop", "season"}

func (s Slot) String() string {
	if s >= 0 && s < numSlots {
		return slotNames[s]
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// ParseSlot maps a slot name ("year", "area", "state", ...) to a Slot.
func ParseSlot(name string) (Slot, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range slotNames {
		if s == n {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature slot %q", name)
}

// SlotFor returns the slot holding the code of a categorical field.
func SlotFor(f model.Field) Slot {
	switch f {
	case model.FieldState:
		return SlotState
	case model.FieldDistrict:
		return SlotDistrict
	case model.FieldCrop:
		return SlotCrop
	default:
		return SlotSeason
	}
}

// defaultBindings maps the column names used at training time to slots.
var defaultBindings = map[string]Slot{
	"Year":      SlotYear,
	"Crop_Year": SlotYear,
	"Area":      SlotArea,
	"State":     SlotState,
	"District":  SlotDistrict,
	"Crop":      SlotCrop,
	"Season":    SlotSeason,
}

// Layout is the declared feature order with each column bound to a slot.
// Immutable after construction.
type Layout struct {
	columns []string
	order   []Slot           // order[i] is the slot feeding column i
	bySlot  [numSlots]string // column name bound to each slot
}

// NewLayout validates the declared column order. Every column must bind to a
// slot (via bindings, which maps column name to slot name, or the default
// training names) and every slot must be bound exactly once.
func NewLayout(columns []string, bindings map[string]string) (*Layout, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("features: empty feature order")
	}
	l := &Layout{
		columns: make([]string, len(columns)),
		order:   make([]Slot, len(columns)),
	}
	copy(l.columns, columns)

	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if seen[col] {
			return nil, fmt.Errorf("features: duplicate column %q", col)
		}
		seen[col] = true

		slot, err := resolve(col, bindings)
		if err != nil {
			return nil, err
		}
		if prev := l.bySlot[slot]; prev != "" {
			return nil, fmt.Errorf("features: columns %q and %q both bind to slot %s", prev, col, slot)
		}
		l.bySlot[slot] = col
		l.order[i] = slot
	}

	var unbound []string
	for s := Slot(0); s < numSlots; s++ {
		if l.bySlot[s] == "" {
			unbound = append(unbound, s.String())
		}
	}
	if len(unbound) > 0 {
		return nil, fmt.Errorf("features: no column bound to slots: %s", strings.Join(unbound, ", "))
	}
	return l, nil
}

func resolve(col string, bindings map[string]string) (Slot, error) {
	if name, ok := bindings[col]; ok {
		return ParseSlot(name)
	}
	if s, ok := defaultBindings[col]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("features: column %q has no slot binding", col)
}

// Columns returns the declared column order.
func (l *Layout) Columns() []string {
	out := make([]string, len(l.columns))
	copy(out, l.columns)
	return out
}

// Width returns the number of features per record.
func (l *Layout) Width() int {
	return len(l.columns)
}

// Column returns the declared column name bound to slot.
func (l *Layout) Column(s Slot) string {
	return l.bySlot[s]
}

// Vector assembles the feature vector for an encoded record.
func (l *Layout) Vector(rec model.Encoded) []float32 {
	out := make([]float32, len(l.order))
	l.Fill(out, rec)
	return out
}

// Fill writes the feature vector for rec into dst, which must have length Width().
func (l *Layout) Fill(dst []float32, rec model.Encoded) {
	for i, s := range l.order {
		dst[i] = float32(value(s, rec))
	}
}

func value(s Slot, rec model.Encoded) float64 {
	switch s {
	case SlotYear:
		return rec.Year
	case SlotArea:
		return rec.Area
	case SlotState:
		return float64(rec.Codes[model.FieldState])
	case SlotDistrict:
		return float64(rec.Codes[model.FieldDistrict])
	case SlotCrop:
		return float64(rec.Codes[model.FieldCrop])
	case SlotSeason:
		return float64(rec.Codes[model.FieldSeason])
	}
	return 0
}

// LoadColumns reads a feature-order file: one column name per line, blank
// lines and lines starting with '#' ignored.
func LoadColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	defer f.Close()
	return ReadColumns(f)
}

// ReadColumns is LoadColumns over an arbitrary reader.
func ReadColumns(r io.Reader) ([]string, error) {
	var cols []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols = append(cols, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("features: read error: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("features: feature list is empty")
	}
	return cols, nil
}
