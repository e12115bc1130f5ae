package datasets

import (
	"fmt"

	"github.com/itembank/backend/internal/irt"
)

// MatrixFromCells converts an uploaded cell grid into an engine
// matrix. A nil cell is a missing response; anything other than 0, 1,
// or nil is rejected. The result is shape-checked with the engine's
// own validator so uploads fail the same way a direct Fit would.
func MatrixFromCells(cells [][]*int) (irt.Matrix, error) {
	data := make(irt.Matrix, len(cells))
	for i, row := range cells {
		data[i] = make([]irt.Response, len(row))
		for j, cell := range row {
			switch {
			case cell == nil:
				data[i][j] = irt.Missing
			case *cell == 0:
				data[i][j] = irt.Incorrect
			case *cell == 1:
				data[i][j] = irt.Correct
			default:
				return nil, fmt.Errorf("cell (%d,%d) = %d: %w", i, j, *cell, irt.ErrInvalidResponse)
			}
		}
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// CellsFromMatrix renders a stored matrix back into the upload shape,
// with missing cells as nil.
func CellsFromMatrix(data irt.Matrix) [][]*int {
	cells := make([][]*int, len(data))
	for i, row := range data {
		cells[i] = make([]*int, len(row))
		for j, cell := range row {
			if cell == irt.Missing {
				continue
			}
			v := int(cell)
			cells[i][j] = &v
		}
	}
	return cells
}
