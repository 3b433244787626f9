// Package encoder maps categorical labels to the integer codes a model was
// trained on, and back.
package encoder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/cropcast/internal/model"
)

// Encoder is an immutable bidirectional mapping between labels and dense codes.
// A label's code is its position in the classes list. Safe for concurrent use.
type Encoder struct {
	field     model.Field
	labelToID map[string]int
	trimmed   map[string]int // whitespace-trimmed label -> code, -1 when ambiguous
	idToLabel []string       // shared read-only with UnknownCategoryError.ValidChoices
}

// New builds an Encoder from an ordered list of class labels.
// Labels must be non-empty and unique after NFC normalization.
func New(field model.Field, classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder %s: no classes", field)
	}
	e := &Encoder{
		field:     field,
		labelToID: make(map[string]int, len(classes)),
		trimmed:   make(map[string]int, len(classes)),
		idToLabel: make([]string, len(classes)),
	}
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("encoder %s: empty label at code %d", field, i)
		}
		key := norm.NFC.String(c)
		if prev, dup := e.labelToID[key]; dup {
			return nil, fmt.Errorf("encoder %s: duplicate label %q at codes %d and %d", field, c, prev, i)
		}
		e.labelToID[key] = i
		e.idToLabel[i] = c
	}
	for i, c := range e.idToLabel {
		key := strings.TrimSpace(norm.NFC.String(c))
		if _, dup := e.trimmed[key]; dup {
			e.trimmed[key] = -1
			continue
		}
		e.trimmed[key] = i
	}
	return e, nil
}

// Load reads a classes file where each line is a label and the line number
// (0-indexed) is its code. A leading UTF-8 BOM and trailing blank lines are ignored.
func Load(field model.Field, path string) (*Encoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("encoder %s: %w", field, err)
	}
	defer f.Close()
	return Read(field, f)
}

// Read is Load over an arbitrary reader.
func Read(field model.Field, r io.Reader) (*Encoder, error) {
	var classes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(classes) == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		classes = append(classes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("encoder %s: read error: %w", field, err)
	}
	for len(classes) > 0 && classes[len(classes)-1] == "" {
		classes = classes[:len(classes)-1]
	}
	return New(field, classes)
}

// Field returns the categorical field this encoder serves.
func (e *Encoder) Field() model.Field {
	return e.field
}

// Encode returns the code for label. An exact match wins; otherwise label
// matches a class that is equal to it once surrounding whitespace is removed
// from both, provided only one class does. Labels outside the known set fail
// with *model.UnknownCategoryError.
func (e *Encoder) Encode(label string) (int, error) {
	key := norm.NFC.String(label)
	if id, ok := e.labelToID[key]; ok {
		return id, nil
	}
	if id, ok := e.trimmed[strings.TrimSpace(key)]; ok && id >= 0 {
		return id, nil
	}
	return 0, &model.UnknownCategoryError{
		Field:        e.field,
		Value:        label,
		ValidChoices: e.idToLabel,
	}
}

// EncodeColumn encodes every label in order. It fails on the first unknown
// label and returns no codes in that case.
func (e *Encoder) EncodeColumn(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, l := range labels {
		id, err := e.Encode(l)
		if err != nil {
			err.(*model.UnknownCategoryError).Row = i + 1
			return nil, err
		}
		codes[i] = id
	}
	return codes, nil
}

// Decode returns the label for code.
func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.idToLabel) {
		return "", fmt.Errorf("encoder %s: code %d out of range [0,%d)", e.field, code, len(e.idToLabel))
	}
	return e.idToLabel[code], nil
}

// Classes returns a copy of the known labels in code order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.idToLabel))
	copy(out, e.idToLabel)
	return out
}

// Size returns the number of known labels.
func (e *Encoder) Size() int {
	return len(e.idToLabel)
}
