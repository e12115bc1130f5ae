package models

import (
	"time"

	"github.com/itembank/backend/internal/irt"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

var ValidJobStatuses = map[JobStatus]bool{
	JobPending:   true,
	JobRunning:   true,
	JobCompleted: true,
	JobFailed:    true,
}

type CalibrationJob struct {
	ID              int64               `json:"id"`
	DatasetID       int64               `json:"dataset_id"`
	Model           irt.ModelType       `json:"model"`
	MissingStrategy irt.MissingStrategy `json:"missing_strategy"`
	MaxIterations   int                 `json:"max_iterations"`
	Tolerance       float64             `json:"tolerance"`
	ParamTolerance  float64             `json:"param_tolerance"`
	LearningRate    float64             `json:"learning_rate"`
	DecayFactor     float64             `json:"decay_factor"`
	Seed            int64               `json:"seed"`
	Status          JobStatus           `json:"status"`
	Iterations      int                 `json:"iterations,omitempty"`
	Converged       bool                `json:"converged"`
	InitialLL       *float64            `json:"initial_log_likelihood,omitempty"`
	FinalLL         *float64            `json:"final_log_likelihood,omitempty"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	CreatedBy       int64               `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
}

// ── Request/Result Types ────────────────────────────────

// CreateCalibrationRequest launches a fit against a stored dataset.
// Omitted hyperparameters fall back to the engine defaults; an omitted
// seed gets a fresh one so the job is still reproducible afterward.
type CreateCalibrationRequest struct {
	DatasetID       int64    `json:"dataset_id"`
	Model           string   `json:"model"`
	MissingStrategy string   `json:"missing_strategy,omitempty"`
	MaxIterations   *int     `json:"max_iterations,omitempty"`
	Tolerance       *float64 `json:"tolerance,omitempty"`
	ParamTolerance  *float64 `json:"param_tolerance,omitempty"`
	LearningRate    *float64 `json:"learning_rate,omitempty"`
	DecayFactor     *float64 `json:"decay_factor,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
}

// ItemParameters holds the fitted values for one item. Discrimination
// is null for 1PL jobs, guessing for 1PL and 2PL jobs.
type ItemParameters struct {
	ItemIndex      int      `json:"item_index"`
	Difficulty     float64  `json:"difficulty"`
	Discrimination *float64 `json:"discrimination,omitempty"`
	Guessing       *float64 `json:"guessing,omitempty"`
}

type PersonAbility struct {
	PersonIndex int     `json:"person_index"`
	Ability     float64 `json:"ability"`
}

// CalibrationResult is a job plus its fitted parameters once the job
// has completed.
type CalibrationResult struct {
	Job            CalibrationJob   `json:"job"`
	ItemParameters []ItemParameters `json:"item_parameters,omitempty"`
	Abilities      []PersonAbility  `json:"abilities,omitempty"`
}
