package output

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/cropcast/internal/model"
)

func baseTable() *model.Table {
	return &model.Table{
		Header: []string{"Crop", model.DefaultPredictionColumn},
		Rows: [][]string{
			{"Rice", "308.95000000000005"},
			{"Wheat", "42.374"},
			{"Rice", "n/a"},
		},
	}
}

func TestRoundColumn(t *testing.T) {
	in := baseTable()
	got := RoundColumn(in, model.DefaultPredictionColumn, 2)

	want := [][]string{
		{"Rice", "308.95"},
		{"Wheat", "42.37"},
		{"Rice", "n/a"},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if in.Rows[0][1] != "308.95000000000005" {
		t.Error("input table was modified")
	}
}

func TestRoundColumnMissing(t *testing.T) {
	in := baseTable()
	got := RoundColumn(in, "Nope", 2)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("table changed (-want +got):\n%s", diff)
	}
}
