package calibration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

var (
	// ErrNotFound covers a job that does not exist or is owned by
	// another user.
	ErrNotFound = errors.New("calibration: job not found")
	// ErrNoPendingJobs means the queue is empty.
	ErrNoPendingJobs = errors.New("calibration: no pending jobs")
)

const jobColumns = `id, dataset_id, model, missing_strategy, max_iterations,
	tolerance, param_tolerance, learning_rate, decay_factor, seed, status,
	iterations, converged, initial_ll, final_ll, error_message, created_by,
	created_at, started_at, completed_at`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJob reads one job row. sql.ErrNoRows passes through unwrapped so
// callers can map it to their own sentinel.
func scanJob(row rowScanner) (*models.CalibrationJob, error) {
	var (
		job         models.CalibrationJob
		initialLL   sql.NullFloat64
		finalLL     sql.NullFloat64
		errMsg      sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.DatasetID, &job.Model, &job.MissingStrategy,
		&job.MaxIterations, &job.Tolerance, &job.ParamTolerance,
		&job.LearningRate, &job.DecayFactor, &job.Seed, &job.Status,
		&job.Iterations, &job.Converged, &initialLL, &finalLL, &errMsg,
		&job.CreatedBy, &job.CreatedAt, &startedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	if initialLL.Valid {
		job.InitialLL = &initialLL.Float64
	}
	if finalLL.Valid {
		job.FinalLL = &finalLL.Float64
	}
	job.ErrorMessage = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// ── Job Rows ────────────────────────────────────────────

func (s *Store) CreateJob(job *models.CalibrationJob) (*models.CalibrationJob, error) {
	row := s.db.QueryRow(`
		INSERT INTO calibration_jobs
			(dataset_id, model, missing_strategy, max_iterations, tolerance,
			 param_tolerance, learning_rate, decay_factor, seed, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+jobColumns,
		job.DatasetID, job.Model, job.MissingStrategy, job.MaxIterations,
		job.Tolerance, job.ParamTolerance, job.LearningRate, job.DecayFactor,
		job.Seed, job.CreatedBy)

	created, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return created, nil
}

func (s *Store) GetJob(userID, id int64) (*models.CalibrationJob, error) {
	row := s.db.QueryRow(`
		SELECT `+jobColumns+`
		FROM calibration_jobs
		WHERE id = $1 AND created_by = $2
	`, id, userID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

func (s *Store) ListJobs(userID int64, status models.JobStatus, datasetID int64) ([]models.CalibrationJob, error) {
	query := `SELECT ` + jobColumns + ` FROM calibration_jobs WHERE created_by = $1`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if datasetID > 0 {
		args = append(args, datasetID)
		query += fmt.Sprintf(" AND dataset_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.CalibrationJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *Store) DeleteJob(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM calibration_jobs WHERE id = $1 AND created_by = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Worker Queue ────────────────────────────────────────

// ClaimNextJob atomically moves the oldest pending job to running.
// SKIP LOCKED lets several workers poll without blocking each other.
func (s *Store) ClaimNextJob() (*models.CalibrationJob, error) {
	row := s.db.QueryRow(`
		UPDATE calibration_jobs
		SET status = 'running', started_at = NOW()
		WHERE id = (
			SELECT id FROM calibration_jobs
			WHERE status = 'pending'
			ORDER BY created_at, id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoPendingJobs
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// CompleteJob stores the fitted parameters and marks the job completed
// in one transaction. Parameter rows go through pq.CopyIn; a large
// dataset produces one row per person plus one per item.
func (s *Store) CompleteJob(jobID int64, res *irt.Result, items []models.ItemParameters, abilities []models.PersonAbility) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE calibration_jobs
		SET status = 'completed', iterations = $2, converged = $3,
		    initial_ll = $4, final_ll = $5, completed_at = NOW()
		WHERE id = $1
	`, jobID, res.Iterations, res.Converged, res.InitialLL, res.FinalLL)
	if err != nil {
		return fmt.Errorf("update job %d: %w", jobID, err)
	}

	stmt, err := tx.Prepare(pq.CopyIn("item_parameters", "job_id", "item_idx", "difficulty", "discrimination", "guessing"))
	if err != nil {
		return fmt.Errorf("prepare item copy: %w", err)
	}
	for _, it := range items {
		if _, err := stmt.Exec(jobID, it.ItemIndex, it.Difficulty, it.Discrimination, it.Guessing); err != nil {
			stmt.Close()
			return fmt.Errorf("copy item %d: %w", it.ItemIndex, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("flush item copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close item copy: %w", err)
	}

	stmt, err = tx.Prepare(pq.CopyIn("person_abilities", "job_id", "person_idx", "ability"))
	if err != nil {
		return fmt.Errorf("prepare ability copy: %w", err)
	}
	for _, ab := range abilities {
		if _, err := stmt.Exec(jobID, ab.PersonIndex, ab.Ability); err != nil {
			stmt.Close()
			return fmt.Errorf("copy ability %d: %w", ab.PersonIndex, err)
		}
	}
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("flush ability copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close ability copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FailJob marks the job failed with a short reason for the caller to
// read back later.
func (s *Store) FailJob(jobID int64, msg string) error {
	_, err := s.db.Exec(`
		UPDATE calibration_jobs
		SET status = 'failed', error_message = $2, completed_at = NOW()
		WHERE id = $1
	`, jobID, msg)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", jobID, err)
	}
	return nil
}

// ── Fitted Results ──────────────────────────────────────

func (s *Store) GetItemParameters(jobID int64) ([]models.ItemParameters, error) {
	rows, err := s.db.Query(`
		SELECT item_idx, difficulty, discrimination, guessing
		FROM item_parameters
		WHERE job_id = $1
		ORDER BY item_idx
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("load item parameters for job %d: %w", jobID, err)
	}
	defer rows.Close()

	var items []models.ItemParameters
	for rows.Next() {
		var it models.ItemParameters
		var disc, guess sql.NullFloat64
		if err := rows.Scan(&it.ItemIndex, &it.Difficulty, &disc, &guess); err != nil {
			return nil, fmt.Errorf("scan item parameters: %w", err)
		}
		if disc.Valid {
			it.Discrimination = &disc.Float64
		}
		if guess.Valid {
			it.Guessing = &guess.Float64
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetPersonAbilities(jobID int64) ([]models.PersonAbility, error) {
	rows, err := s.db.Query(`
		SELECT person_idx, ability
		FROM person_abilities
		WHERE job_id = $1
		ORDER BY person_idx
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("load abilities for job %d: %w", jobID, err)
	}
	defer rows.Close()

	var abilities []models.PersonAbility
	for rows.Next() {
		var ab models.PersonAbility
		if err := rows.Scan(&ab.PersonIndex, &ab.Ability); err != nil {
			return nil, fmt.Errorf("scan ability: %w", err)
		}
		abilities = append(abilities, ab)
	}
	return abilities, rows.Err()
}
