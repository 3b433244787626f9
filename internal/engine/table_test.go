package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/cropcast/internal/model"
)

func batchTable() *model.Table {
	return &model.Table{
		Header: []string{"State", "District", "Crop_Year", "Season", "Crop", "Area"},
		Rows: [][]string{
			{"Kerala", "Wayanad", "2022", "Kharif", "Rice", "150.5"},
			{"Kerala", "Idukki", "2021", "Rabi", "Wheat", "10"},
			{"Assam", "Kollam", "2019", "Autumn", "Rice", "0"},
		},
	}
}

func TestPredictTableValid(t *testing.T) {
	p := &recordingPredictor{value: 7.5}
	eng := newTestEngine(t, p)

	res, err := eng.PredictTable(context.Background(), batchTable(), Strict)
	if err != nil {
		t.Fatalf("PredictTable() error: %v", err)
	}
	want := &model.Table{
		Header: []string{"State", "District", "Crop_Year", "Season", "Crop", "Area", model.DefaultPredictionColumn},
		Rows: [][]string{
			{"Kerala", "Wayanad", "2022", "Kharif", "Rice", "150.5", "7.5"},
			{"Kerala", "Idukki", "2021", "Rabi", "Wheat", "10", "7.5"},
			{"Assam", "Kollam", "2019", "Autumn", "Rice", "0", "7.5"},
		},
	}
	if diff := cmp.Diff(want, res.Table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if len(res.Rejected) != 0 {
		t.Errorf("Rejected = %v, want none", res.Rejected)
	}

	wantVecs := [][]float32{
		{2022, 150.5, 0, 1, 5, 12},
		{2021, 10, 1, 2, 5, 2},
		{2019, 0, 0, 0, 1, 5},
	}
	if diff := cmp.Diff(wantVecs, p.seen); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictTableStrictAllOrNothing(t *testing.T) {
	p := &recordingPredictor{value: 1}
	eng := newTestEngine(t, p)

	tbl := batchTable()
	tbl.Rows[2][4] = "Maize"

	res, err := eng.PredictTable(context.Background(), tbl, Strict)
	if res != nil {
		t.Errorf("expected no partial output, got %+v", res)
	}
	var uce *model.UnknownCategoryError
	if !errors.As(err, &uce) {
		t.Fatalf("error = %v, want *UnknownCategoryError", err)
	}
	if uce.Row != 3 || uce.Field != model.FieldCrop {
		t.Errorf("got row=%d field=%v, want row=3 field=Crop", uce.Row, uce.Field)
	}
	if p.calls != 0 {
		t.Errorf("predictor called %d times, want 0", p.calls)
	}
}

func TestPredictTableLenient(t *testing.T) {
	eng := newTestEngine(t, &recordingPredictor{value: 2})

	tbl := batchTable()
	tbl.Rows[0][4] = "Maize"
	tbl.Rows[2][5] = "lots"

	res, err := eng.PredictTable(context.Background(), tbl, Lenient)
	if err != nil {
		t.Fatalf("PredictTable() error: %v", err)
	}
	if res.Table.Len() != 1 || res.Table.Rows[0][1] != "Idukki" {
		t.Errorf("kept rows = %v, want only the Idukki row", res.Table.Rows)
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("Rejected = %v, want 2 entries", res.Rejected)
	}
	if res.Rejected[0].Row != 1 || model.KindOf(res.Rejected[0].Err) != model.KindUnknownCategory {
		t.Errorf("first rejection = %+v", res.Rejected[0])
	}
	if res.Rejected[1].Row != 3 || model.KindOf(res.Rejected[1].Err) != model.KindSchema {
		t.Errorf("second rejection = %+v", res.Rejected[1])
	}
}

func TestPredictTableSchemaErrors(t *testing.T) {
	eng := newTestEngine(t, &recordingPredictor{value: 1})

	tests := []struct {
		name string
		tbl  *model.Table
	}{
		{"missing columns", &model.Table{Header: []string{"State", "Crop", "Area"}}},
		{"duplicate column", &model.Table{Header: []string{"State", "District", "Year", "Season", "Crop", "Area", "Area"}}},
		{"ragged row", &model.Table{
			Header: []string{"State", "District", "Year", "Season", "Crop", "Area"},
			Rows:   [][]string{{"Kerala", "Wayanad"}},
		}},
		{"not a number", &model.Table{
			Header: []string{"State", "District", "Year", "Season", "Crop", "Area"},
			Rows:   [][]string{{"Kerala", "Wayanad", "twenty", "Kharif", "Rice", "1"}},
		}},
		{"prediction column present", &model.Table{
			Header: []string{"State", "District", "Year", "Season", "Crop", "Area", model.DefaultPredictionColumn},
		}},
	}
	for _, tt := range tests {
		_, err := eng.PredictTable(context.Background(), tt.tbl, Strict)
		if model.KindOf(err) != model.KindSchema {
			t.Errorf("%s: error = %v, want schema error", tt.name, err)
		}
	}

	_, err := eng.PredictTable(context.Background(), &model.Table{Header: []string{"State", "Crop"}}, Strict)
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if diff := cmp.Diff([]string{"Crop_Year", "Area", "District", "Season"}, se.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictTableChunks(t *testing.T) {
	p := &recordingPredictor{value: 3}
	eng := newTestEngine(t, p, WithChunkSize(2))

	tbl := batchTable()
	tbl.Rows = append(tbl.Rows, tbl.Rows...)
	res, err := eng.PredictTable(context.Background(), tbl, Strict)
	if err != nil {
		t.Fatalf("PredictTable() error: %v", err)
	}
	if res.Table.Len() != 6 {
		t.Errorf("rows = %d, want 6", res.Table.Len())
	}
	if p.calls != 3 {
		t.Errorf("predictor calls = %d, want 3", p.calls)
	}
}

func TestPredictTableCanceled(t *testing.T) {
	eng := newTestEngine(t, &recordingPredictor{value: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.PredictTable(ctx, batchTable(), Strict); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPredictTableCustomColumn(t *testing.T) {
	eng := newTestEngine(t, &recordingPredictor{value: 3}, WithPredictionColumn("Yield"))
	res, err := eng.PredictTable(context.Background(), batchTable(), Strict)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Table.Header[len(res.Table.Header)-1]; got != "Yield" {
		t.Errorf("last column = %q, want Yield", got)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Strict, false},
		{"strict", Strict, false},
		{"lenient", Lenient, false},
		{"skip", Strict, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
