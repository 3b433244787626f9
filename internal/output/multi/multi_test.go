package multi

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/crimson-sun/cropcast/internal/model"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	tables []*model.Table
	closed bool
	err    error // if set, Write returns this error
}

func (m *mockOutput) Write(_ context.Context, t *model.Table) error {
	m.tables = append(m.tables, t)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testTable(crop string) *model.Table {
	return &model.Table{
		Header: []string{"Crop", model.DefaultPredictionColumn},
		Rows:   [][]string{{crop, "42.37"}},
	}
}

func targets(outs ...*mockOutput) []Target {
	ts := make([]Target, len(outs))
	for i, o := range outs {
		ts[i] = Target{Name: string(rune('a' + i)), Out: o}
	}
	return ts
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	c := &mockOutput{}
	m := New(targets(a, b, c)...)

	if err := m.Write(context.Background(), testTable("Rice")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.tables) != 1 {
			t.Fatalf("output %d: got %d tables, want 1", i, len(out.tables))
		}
		if got := out.tables[0].Rows[0][0]; got != "Rice" {
			t.Errorf("output %d: got crop %q, want %q", i, got, "Rice")
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(targets(failing, healthy)...)

	err := m.Write(context.Background(), testTable("Wheat"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Healthy output still received the table despite earlier failure.
	if len(healthy.tables) != 1 {
		t.Fatalf("healthy output got %d tables, want 1", len(healthy.tables))
	}
	if len(failing.tables) != 1 {
		t.Fatalf("failing output got %d tables, want 1", len(failing.tables))
	}
}

func TestCloseCallsAllOutputs(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	m := New(targets(a, b)...)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Errorf("Close not called on all outputs: a=%v b=%v", a.closed, b.closed)
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(targets(a, b)...)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, a.err) || !errors.Is(err, b.err) {
		t.Errorf("joined error = %v, want both causes", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestErrorsNameTheTarget(t *testing.T) {
	m := New(
		Target{Name: "out/pred.xlsx", Out: &mockOutput{err: errors.New("disk full")}},
		Target{Name: "terminal", Out: &mockOutput{}},
	)
	err := m.Write(context.Background(), testTable("Rice"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := err.Error(); got != "out/pred.xlsx: disk full" {
		t.Errorf("error = %q, want it prefixed with the failing target", got)
	}
	if strings.Contains(err.Error(), "terminal") {
		t.Error("healthy target should not appear in the error")
	}
}
