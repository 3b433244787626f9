package term

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/crimson-sun/cropcast/internal/model"
)

func TestWriteRoundsPrediction(t *testing.T) {
	tbl := &model.Table{
		Header: []string{"Crop", model.DefaultPredictionColumn},
		Rows:   [][]string{{"Rice", "308.95000000000005"}},
	}
	var buf bytes.Buffer
	if err := New(&buf, model.DefaultPredictionColumn, 2).Write(context.Background(), tbl); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Crop", "Rice", "308.95"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "308.95000000000005") {
		t.Errorf("prediction not rounded:\n%s", out)
	}
}
