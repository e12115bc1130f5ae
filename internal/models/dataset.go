package models

import "time"

type Dataset struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Persons     int       `json:"persons"`
	Items       int       `json:"items"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadDatasetRequest carries a person-by-item response matrix.
// Cells are 1 (correct), 0 (incorrect), or null (missing).
type UploadDatasetRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Matrix      [][]*int `json:"matrix"`
}

// DatasetResponse includes the reassembled matrix on single-dataset
// reads; list endpoints leave it empty.
type DatasetResponse struct {
	Dataset
	Matrix [][]*int `json:"matrix,omitempty"`
}

// ItemStat summarizes one item classically: proportion correct and
// the item-total score correlation over persons who answered it.
type ItemStat struct {
	ItemIndex      int      `json:"item_index"`
	Answered       int      `json:"answered"`
	PValue         float64  `json:"p_value"`
	Discrimination *float64 `json:"discrimination,omitempty"`
}

// PersonScore is a person's raw sum score over answered items.
type PersonScore struct {
	PersonIndex int `json:"person_index"`
	Answered    int `json:"answered"`
	RawScore    int `json:"raw_score"`
}

type DatasetStats struct {
	DatasetID     int64         `json:"dataset_id"`
	Persons       int           `json:"persons"`
	Items         int           `json:"items"`
	CronbachAlpha *float64      `json:"cronbach_alpha,omitempty"`
	ItemStats     []ItemStat    `json:"item_stats"`
	PersonScores  []PersonScore `json:"person_scores"`
}
