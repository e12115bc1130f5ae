package datasets

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/itembank/backend/internal/irt"
)

func intPtr(v int) *int { return &v }

func TestMatrixFromCells(t *testing.T) {
	cells := [][]*int{
		{intPtr(1), nil, intPtr(0)},
		{intPtr(0), intPtr(1), nil},
	}

	got, err := MatrixFromCells(cells)
	if err != nil {
		t.Fatalf("MatrixFromCells returned error: %v", err)
	}

	want := irt.Matrix{
		{irt.Correct, irt.Missing, irt.Incorrect},
		{irt.Incorrect, irt.Correct, irt.Missing},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MatrixFromCells mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrixFromCellsRejects(t *testing.T) {
	tests := []struct {
		name    string
		cells   [][]*int
		wantErr error
	}{
		{"no rows", [][]*int{}, irt.ErrEmptyMatrix},
		{"empty row", [][]*int{{}}, irt.ErrEmptyMatrix},
		{"ragged", [][]*int{{intPtr(1), intPtr(0)}, {intPtr(1)}}, irt.ErrRaggedMatrix},
		{"out of range cell", [][]*int{{intPtr(1), intPtr(2)}}, irt.ErrInvalidResponse},
		{"negative cell", [][]*int{{intPtr(-1)}}, irt.ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatrixFromCells(tt.cells)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("MatrixFromCells error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCellsFromMatrixRoundTrip(t *testing.T) {
	cells := [][]*int{
		{intPtr(1), nil},
		{intPtr(0), intPtr(1)},
	}

	data, err := MatrixFromCells(cells)
	if err != nil {
		t.Fatalf("MatrixFromCells returned error: %v", err)
	}

	back := CellsFromMatrix(data)
	if diff := cmp.Diff(cells, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
