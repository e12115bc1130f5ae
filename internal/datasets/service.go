package datasets

import (
	"fmt"

	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Upload shape-checks the incoming matrix and persists it, returning
// the stored header.
func (s *Service) Upload(userID int64, req models.UploadDatasetRequest) (*models.Dataset, error) {
	data, err := MatrixFromCells(req.Matrix)
	if err != nil {
		return nil, err
	}
	persons, items := data.Dims()

	ds := &models.Dataset{
		Name:        req.Name,
		Description: req.Description,
		Persons:     persons,
		Items:       items,
		CreatedBy:   userID,
	}
	id, err := s.store.CreateDataset(ds, data)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return s.store.GetDataset(userID, id)
}

func (s *Service) List(userID int64) ([]models.Dataset, error) {
	return s.store.ListDatasets(userID)
}

// Get returns the header together with the reassembled matrix.
func (s *Service) Get(userID, id int64) (*models.DatasetResponse, error) {
	ds, err := s.store.GetDataset(userID, id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.GetMatrix(userID, id)
	if err != nil {
		return nil, err
	}
	return &models.DatasetResponse{Dataset: *ds, Matrix: CellsFromMatrix(data)}, nil
}

func (s *Service) Delete(userID, id int64) error {
	return s.store.DeleteDataset(userID, id)
}

// Header returns the dataset row without loading responses. The
// calibration layer uses it to check a dataset before queueing a job.
func (s *Service) Header(userID, id int64) (*models.Dataset, error) {
	return s.store.GetDataset(userID, id)
}

// Matrix loads the full response matrix for the engine.
func (s *Service) Matrix(userID, id int64) (irt.Matrix, error) {
	return s.store.GetMatrix(userID, id)
}

// Stats computes the classical summary for a stored dataset.
func (s *Service) Stats(userID, id int64) (*models.DatasetStats, error) {
	ds, err := s.store.GetDataset(userID, id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.GetMatrix(userID, id)
	if err != nil {
		return nil, err
	}
	return &models.DatasetStats{
		DatasetID:     ds.ID,
		Persons:       ds.Persons,
		Items:         ds.Items,
		CronbachAlpha: CronbachAlpha(data),
		ItemStats:     ItemStats(data),
		PersonScores:  PersonScores(data),
	}, nil
}
