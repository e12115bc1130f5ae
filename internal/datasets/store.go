package datasets

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

// ErrNotFound covers both a dataset that does not exist and one owned
// by another user. Handlers turn it into a 404 either way.
var ErrNotFound = errors.New("datasets: not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Dataset Rows ────────────────────────────────────────

// CreateDataset persists the header row and every observed cell in
// one transaction. Cells go in long format through pq.CopyIn since a
// matrix routinely carries tens of thousands of them; missing cells
// get no row at all.
func (s *Store) CreateDataset(ds *models.Dataset, data irt.Matrix) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`
		INSERT INTO datasets (name, description, persons, items, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, ds.Name, ds.Description, ds.Persons, ds.Items, ds.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert dataset: %w", err)
	}

	stmt, err := tx.Prepare(pq.CopyIn("responses", "dataset_id", "person_idx", "item_idx", "correct"))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	for i, row := range data {
		for j, cell := range row {
			if cell == irt.Missing {
				continue
			}
			if _, err := stmt.Exec(id, i, j, cell == irt.Correct); err != nil {
				stmt.Close()
				return 0, fmt.Errorf("copy response (%d,%d): %w", i, j, err)
			}
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (s *Store) GetDataset(userID, id int64) (*models.Dataset, error) {
	ds := &models.Dataset{}
	err := s.db.QueryRow(`
		SELECT id, name, description, persons, items, created_by, created_at
		FROM datasets
		WHERE id = $1 AND created_by = $2
	`, id, userID).Scan(&ds.ID, &ds.Name, &ds.Description, &ds.Persons, &ds.Items, &ds.CreatedBy, &ds.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %d: %w", id, err)
	}
	return ds, nil
}

func (s *Store) ListDatasets(userID int64) ([]models.Dataset, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, persons, items, created_by, created_at
		FROM datasets
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var ds models.Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.Persons, &ds.Items, &ds.CreatedBy, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

// DeleteDataset removes the dataset; responses and calibration jobs
// follow by cascade.
func (s *Store) DeleteDataset(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM datasets WHERE id = $1 AND created_by = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete dataset %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Response Matrix ─────────────────────────────────────

// GetMatrix reassembles the long-format rows into a dense matrix.
// Cells without a stored row stay Missing.
func (s *Store) GetMatrix(userID, id int64) (irt.Matrix, error) {
	ds, err := s.GetDataset(userID, id)
	if err != nil {
		return nil, err
	}

	data := make(irt.Matrix, ds.Persons)
	for i := range data {
		row := make([]irt.Response, ds.Items)
		for j := range row {
			row[j] = irt.Missing
		}
		data[i] = row
	}

	rows, err := s.db.Query(`
		SELECT person_idx, item_idx, correct
		FROM responses
		WHERE dataset_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load responses for dataset %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var person, item int
		var correct bool
		if err := rows.Scan(&person, &item, &correct); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if person < 0 || person >= ds.Persons || item < 0 || item >= ds.Items {
			return nil, fmt.Errorf("response (%d,%d) outside %dx%d dataset %d", person, item, ds.Persons, ds.Items, id)
		}
		if correct {
			data[person][item] = irt.Correct
		} else {
			data[person][item] = irt.Incorrect
		}
	}
	return data, rows.Err()
}
