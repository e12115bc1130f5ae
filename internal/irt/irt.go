// Package irt estimates latent-trait parameters from binary item-response
// data. Given a person-by-item matrix of correct/incorrect/missing cells it
// fits a logistic response model (1PL, 2PL, or 3PL) by maximizing the
// log-likelihood of the observed responses with adaptive gradient ascent.
package irt

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyMatrix is returned when the response matrix has no rows or
	// no columns.
	ErrEmptyMatrix = errors.New("irt: response matrix has no rows or no columns")

	// ErrRaggedMatrix is returned when the rows of the response matrix
	// have unequal lengths.
	ErrRaggedMatrix = errors.New("irt: response matrix is not rectangular")

	// ErrInvalidResponse is returned when a cell is not one of
	// Correct, Incorrect, or Missing.
	ErrInvalidResponse = errors.New("irt: response cell is not 0, 1, or missing")

	// ErrUnknownStrategy is returned when the configured missing-data
	// strategy is not recognized.
	ErrUnknownStrategy = errors.New("irt: unknown missing-data strategy")

	// ErrUnknownModel is returned when the model type is not recognized.
	ErrUnknownModel = errors.New("irt: unknown model type")
)

// Response is a single cell of a response matrix.
type Response int8

const (
	Incorrect Response = 0
	Correct   Response = 1
	Missing   Response = -1
)

// Matrix is a person-by-item grid of responses. Rows are persons,
// columns are items. The engine reads it but never mutates it.
type Matrix [][]Response

// Dims returns the number of persons (rows) and items (columns).
func (m Matrix) Dims() (persons, items int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Validate checks that the matrix is rectangular, non-empty, and holds
// only Correct, Incorrect, or Missing cells.
func (m Matrix) Validate() error {
	if len(m) == 0 || len(m[0]) == 0 {
		return ErrEmptyMatrix
	}
	items := len(m[0])
	for i, row := range m {
		if len(row) != items {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedMatrix, i, len(row), items)
		}
		for j, cell := range row {
			if cell != Correct && cell != Incorrect && cell != Missing {
				return fmt.Errorf("%w: cell (%d,%d) = %d", ErrInvalidResponse, i, j, cell)
			}
		}
	}
	return nil
}

// MissingStrategy selects how missing cells enter the likelihood.
type MissingStrategy string

const (
	// MissingIgnore drops missing cells from likelihood and gradient.
	MissingIgnore MissingStrategy = "ignore"
	// MissingTreatIncorrect scores missing cells as incorrect.
	MissingTreatIncorrect MissingStrategy = "treat_as_incorrect"
	// MissingTreatCorrect scores missing cells as correct.
	MissingTreatCorrect MissingStrategy = "treat_as_correct"
)

// ValidMissingStrategies is the set of recognized strategies.
var ValidMissingStrategies = map[MissingStrategy]bool{
	MissingIgnore:         true,
	MissingTreatIncorrect: true,
	MissingTreatCorrect:   true,
}

// resolve maps a raw cell to a usable binary value, or skip=true when
// the cell contributes nothing. Non-missing cells always pass through
// unchanged regardless of strategy. Unknown strategies never reach
// here; New rejects them.
func (s MissingStrategy) resolve(cell Response) (value float64, skip bool) {
	if cell != Missing {
		return float64(cell), false
	}
	switch s {
	case MissingTreatIncorrect:
		return 0, false
	case MissingTreatCorrect:
		return 1, false
	default:
		return 0, true
	}
}

// ModelType names a logistic response-model variant.
type ModelType string

const (
	// Model1PL estimates abilities and difficulties only.
	Model1PL ModelType = "1pl"
	// Model2PL adds a per-item discrimination scale.
	Model2PL ModelType = "2pl"
	// Model3PL adds a per-item lower-asymptote guessing term.
	Model3PL ModelType = "3pl"
)

// ValidModelTypes is the set of recognized model types.
var ValidModelTypes = map[ModelType]bool{
	Model1PL: true,
	Model2PL: true,
	Model3PL: true,
}

// Parameter bounds enforced after every optimizer update.
const (
	MinDiscrimination = 0.01
	MaxDiscrimination = 5.0
	MinGuessing       = 0.0
	MaxGuessing       = 0.35
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultMaxIterations  = 1000
	DefaultTolerance      = 1e-6
	DefaultParamTolerance = 1e-6
	DefaultLearningRate   = 0.01
	DefaultDecayFactor    = 0.95
)

// Config controls a fit. Zero values are replaced with defaults:
// MaxIterations=1000, Tolerance=1e-6, ParamTolerance=1e-6,
// LearningRate=0.01, DecayFactor=0.95, MissingStrategy=ignore.
// Seed=0 derives a seed from the clock; pass a nonzero seed for
// reproducible initialization.
type Config struct {
	MaxIterations   int             `json:"max_iterations"`
	Tolerance       float64         `json:"tolerance"`
	ParamTolerance  float64         `json:"param_tolerance"`
	LearningRate    float64         `json:"learning_rate"`
	DecayFactor     float64         `json:"decay_factor"`
	MissingStrategy MissingStrategy `json:"missing_strategy"`
	Seed            int64           `json:"seed"`
}

func (c Config) withDefaults() Config {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.ParamTolerance == 0 {
		c.ParamTolerance = DefaultParamTolerance
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.DecayFactor == 0 {
		c.DecayFactor = DefaultDecayFactor
	}
	if c.MissingStrategy == "" {
		c.MissingStrategy = MissingIgnore
	}
	return c
}

// logistic is 1/(1+exp(-x)), arranged so large-magnitude x saturates
// toward 0 or 1 without overflowing.
func logistic(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}
