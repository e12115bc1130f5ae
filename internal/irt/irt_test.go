package irt

import (
	"errors"
	"math"
	"testing"
)

func TestMatrixValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Matrix
		wantErr error
	}{
		{"nil matrix", nil, ErrEmptyMatrix},
		{"no rows", Matrix{}, ErrEmptyMatrix},
		{"zero-width row", Matrix{{}}, ErrEmptyMatrix},
		{"ragged rows", Matrix{{1, 0}, {1}}, ErrRaggedMatrix},
		{"bad cell value", Matrix{{1, 0}, {1, 2}}, ErrInvalidResponse},
		{"single cell", Matrix{{1}}, nil},
		{"rectangular with missing", Matrix{{1, Missing}, {0, 1}}, nil},
	}

	for _, tt := range tests {
		err := tt.m.Validate()
		if tt.wantErr == nil && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Validate() = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestMatrixDims(t *testing.T) {
	persons, items := Matrix{{1, 0, 1}, {0, 1, Missing}}.Dims()
	if persons != 2 || items != 3 {
		t.Errorf("Dims() = (%d, %d), want (2, 3)", persons, items)
	}

	persons, items = Matrix(nil).Dims()
	if persons != 0 || items != 0 {
		t.Errorf("nil Dims() = (%d, %d), want (0, 0)", persons, items)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		strategy MissingStrategy
		cell     Response
		want     float64
		skip     bool
	}{
		// Non-missing cells pass through under every strategy.
		{MissingIgnore, Correct, 1, false},
		{MissingIgnore, Incorrect, 0, false},
		{MissingTreatIncorrect, Correct, 1, false},
		{MissingTreatCorrect, Incorrect, 0, false},
		// Missing cells follow the strategy.
		{MissingIgnore, Missing, 0, true},
		{MissingTreatIncorrect, Missing, 0, false},
		{MissingTreatCorrect, Missing, 1, false},
	}

	for _, tt := range tests {
		got, skip := tt.strategy.resolve(tt.cell)
		if skip != tt.skip {
			t.Errorf("%s.resolve(%d) skip = %v, want %v", tt.strategy, tt.cell, skip, tt.skip)
			continue
		}
		if !skip && got != tt.want {
			t.Errorf("%s.resolve(%d) = %f, want %f", tt.strategy, tt.cell, got, tt.want)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	data := Matrix{{1, 0}, {0, 1}}

	_, err := New("4pl", data, Config{})
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("New(4pl) error = %v, want ErrUnknownModel", err)
	}

	_, err = New(Model1PL, data, Config{MissingStrategy: "drop"})
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(strategy=drop) error = %v, want ErrUnknownStrategy", err)
	}

	_, err = New(Model1PL, Matrix{{1, 0}, {1}}, Config{})
	if !errors.Is(err, ErrRaggedMatrix) {
		t.Errorf("New(ragged) error = %v, want ErrRaggedMatrix", err)
	}

	_, err = New(Model1PL, Matrix{}, Config{})
	if !errors.Is(err, ErrEmptyMatrix) {
		t.Errorf("New(empty) error = %v, want ErrEmptyMatrix", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m, err := New(Model1PL, Matrix{{1, 0}}, Config{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m.cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", m.cfg.MaxIterations, DefaultMaxIterations)
	}
	if m.cfg.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %g, want %g", m.cfg.Tolerance, DefaultTolerance)
	}
	if m.cfg.ParamTolerance != DefaultParamTolerance {
		t.Errorf("ParamTolerance = %g, want %g", m.cfg.ParamTolerance, DefaultParamTolerance)
	}
	if m.cfg.LearningRate != DefaultLearningRate {
		t.Errorf("LearningRate = %g, want %g", m.cfg.LearningRate, DefaultLearningRate)
	}
	if m.cfg.DecayFactor != DefaultDecayFactor {
		t.Errorf("DecayFactor = %g, want %g", m.cfg.DecayFactor, DefaultDecayFactor)
	}
	if m.cfg.MissingStrategy != MissingIgnore {
		t.Errorf("MissingStrategy = %q, want %q", m.cfg.MissingStrategy, MissingIgnore)
	}
}

func TestNewInitRanges(t *testing.T) {
	data := make(Matrix, 40)
	for i := range data {
		data[i] = make([]Response, 30)
		for j := range data[i] {
			data[i][j] = Response((i + j) % 2)
		}
	}

	m, err := New(Model3PL, data, Config{Seed: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i, v := range m.abilities {
		if v < -0.25 || v > 0.25 {
			t.Errorf("abilities[%d] = %f, want in [-0.25, 0.25]", i, v)
		}
	}
	for i, v := range m.difficulties {
		if v < -0.25 || v > 0.25 {
			t.Errorf("difficulties[%d] = %f, want in [-0.25, 0.25]", i, v)
		}
	}
	for i, v := range m.discriminations {
		if v < 0.5 || v > 1.5 {
			t.Errorf("discriminations[%d] = %f, want in [0.5, 1.5]", i, v)
		}
	}
	for i, v := range m.guessings {
		if v < 0.0 || v > 0.3 {
			t.Errorf("guessings[%d] = %f, want in [0.0, 0.3]", i, v)
		}
	}
}

func TestLogistic(t *testing.T) {
	// Midpoint.
	if got := logistic(0); got != 0.5 {
		t.Errorf("logistic(0) = %f, want 0.5", got)
	}

	// Symmetry: logistic(-x) = 1 - logistic(x).
	for _, x := range []float64{0.1, 1, 2.5, 10} {
		sum := logistic(x) + logistic(-x)
		if math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("logistic(%f) + logistic(-%f) = %f, want 1", x, x, sum)
		}
	}

	// Saturation without overflow or NaN.
	if got := logistic(1000); got != 1.0 {
		t.Errorf("logistic(1000) = %f, want 1", got)
	}
	got := logistic(-1000)
	if got != 0.0 || math.IsNaN(got) {
		t.Errorf("logistic(-1000) = %f, want 0", got)
	}
}
