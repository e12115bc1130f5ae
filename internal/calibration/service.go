package calibration

import (
	"fmt"
	"log"
	"time"

	"github.com/itembank/backend/internal/datasets"
	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

type Service struct {
	store    *Store
	datasets *datasets.Service
}

func NewService(store *Store, ds *datasets.Service) *Service {
	return &Service{store: store, datasets: ds}
}

// ── Job Creation & Access ───────────────────────────────

// Create validates the request against the engine's enums and queues a
// pending job. The effective seed is stored even when the caller omits
// one, so every finished job can be reproduced.
func (s *Service) Create(userID int64, req models.CreateCalibrationRequest) (*models.CalibrationJob, error) {
	if _, err := s.datasets.Header(userID, req.DatasetID); err != nil {
		return nil, err
	}

	job, err := jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	job.CreatedBy = userID

	created, err := s.store.CreateJob(job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return created, nil
}

// jobFromRequest resolves a create request into a full job row. Omitted
// hyperparameters take the engine defaults; an omitted seed gets drawn
// from the clock.
func jobFromRequest(req models.CreateCalibrationRequest) (*models.CalibrationJob, error) {
	model := irt.ModelType(req.Model)
	if !irt.ValidModelTypes[model] {
		return nil, fmt.Errorf("model %q: %w", req.Model, irt.ErrUnknownModel)
	}

	strategy := irt.MissingStrategy(req.MissingStrategy)
	if strategy == "" {
		strategy = irt.MissingIgnore
	}
	if !irt.ValidMissingStrategies[strategy] {
		return nil, fmt.Errorf("missing strategy %q: %w", req.MissingStrategy, irt.ErrUnknownStrategy)
	}

	job := &models.CalibrationJob{
		DatasetID:       req.DatasetID,
		Model:           model,
		MissingStrategy: strategy,
		MaxIterations:   irt.DefaultMaxIterations,
		Tolerance:       irt.DefaultTolerance,
		ParamTolerance:  irt.DefaultParamTolerance,
		LearningRate:    irt.DefaultLearningRate,
		DecayFactor:     irt.DefaultDecayFactor,
		Seed:            time.Now().UnixNano(),
		Status:          models.JobPending,
	}
	if req.MaxIterations != nil {
		job.MaxIterations = *req.MaxIterations
	}
	if req.Tolerance != nil {
		job.Tolerance = *req.Tolerance
	}
	if req.ParamTolerance != nil {
		job.ParamTolerance = *req.ParamTolerance
	}
	if req.LearningRate != nil {
		job.LearningRate = *req.LearningRate
	}
	if req.DecayFactor != nil {
		job.DecayFactor = *req.DecayFactor
	}
	if req.Seed != nil {
		job.Seed = *req.Seed
	}
	return job, nil
}

func (s *Service) List(userID int64, status models.JobStatus, datasetID int64) ([]models.CalibrationJob, error) {
	return s.store.ListJobs(userID, status, datasetID)
}

// Get returns the job row, plus the fitted parameters once the job has
// completed.
func (s *Service) Get(userID, id int64) (*models.CalibrationResult, error) {
	job, err := s.store.GetJob(userID, id)
	if err != nil {
		return nil, err
	}

	result := &models.CalibrationResult{Job: *job}
	if job.Status == models.JobCompleted {
		if result.ItemParameters, err = s.store.GetItemParameters(id); err != nil {
			return nil, err
		}
		if result.Abilities, err = s.store.GetPersonAbilities(id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) Delete(userID, id int64) error {
	return s.store.DeleteJob(userID, id)
}

// ── Worker Execution ────────────────────────────────────

// ClaimNext hands the worker the oldest pending job, or
// ErrNoPendingJobs when the queue is empty.
func (s *Service) ClaimNext() (*models.CalibrationJob, error) {
	return s.store.ClaimNextJob()
}

// Execute loads the job's matrix, fits the model, and persists the
// outcome. Failures land on the job row rather than being returned;
// the worker has nobody to hand them to.
func (s *Service) Execute(job *models.CalibrationJob) {
	log.Printf("[worker] job %d: fitting %s on dataset %d", job.ID, job.Model, job.DatasetID)

	res, err := s.fit(job)
	if err != nil {
		log.Printf("[worker] job %d failed: %v", job.ID, err)
		if ferr := s.store.FailJob(job.ID, err.Error()); ferr != nil {
			log.Printf("[worker] job %d: recording failure: %v", job.ID, ferr)
		}
		return
	}

	items, abilities := resultRows(res)
	if err := s.store.CompleteJob(job.ID, res, items, abilities); err != nil {
		log.Printf("[worker] job %d: persisting result: %v", job.ID, err)
		if ferr := s.store.FailJob(job.ID, "failed to persist result"); ferr != nil {
			log.Printf("[worker] job %d: recording failure: %v", job.ID, ferr)
		}
		return
	}

	log.Printf("[worker] job %d completed: converged=%v iterations=%d", job.ID, res.Converged, res.Iterations)
}

func (s *Service) fit(job *models.CalibrationJob) (*irt.Result, error) {
	data, err := s.datasets.Matrix(job.CreatedBy, job.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %d: %w", job.DatasetID, err)
	}

	model, err := irt.New(job.Model, data, irt.Config{
		MaxIterations:   job.MaxIterations,
		Tolerance:       job.Tolerance,
		ParamTolerance:  job.ParamTolerance,
		LearningRate:    job.LearningRate,
		DecayFactor:     job.DecayFactor,
		MissingStrategy: job.MissingStrategy,
		Seed:            job.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("construct model: %w", err)
	}

	res := model.Fit()
	return &res, nil
}

// resultRows shapes a fit result into parameter rows. Discrimination
// and guessing stay nil for models that do not estimate them.
func resultRows(res *irt.Result) ([]models.ItemParameters, []models.PersonAbility) {
	items := make([]models.ItemParameters, len(res.Difficulties))
	for i := range items {
		items[i] = models.ItemParameters{ItemIndex: i, Difficulty: res.Difficulties[i]}
		if res.Discriminations != nil {
			v := res.Discriminations[i]
			items[i].Discrimination = &v
		}
		if res.Guessings != nil {
			v := res.Guessings[i]
			items[i].Guessing = &v
		}
	}

	abilities := make([]models.PersonAbility, len(res.Abilities))
	for i := range abilities {
		abilities[i] = models.PersonAbility{PersonIndex: i, Ability: res.Abilities[i]}
	}
	return items, abilities
}
