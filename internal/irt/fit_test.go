package irt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// sampleMatrix has non-degenerate variation: every person and item
// mixes correct and incorrect responses except the last row.
func sampleMatrix() Matrix {
	return Matrix{
		{1, 1, 0},
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 1},
	}
}

func TestFitImprovesLogLikelihood(t *testing.T) {
	m, err := New(Model2PL, sampleMatrix(), Config{
		MaxIterations: 300,
		LearningRate:  0.1,
		Seed:          42,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := m.LogLikelihood()
	res := m.Fit()

	if len(res.Abilities) != 4 {
		t.Errorf("abilities length = %d, want 4", len(res.Abilities))
	}
	if len(res.Difficulties) != 3 {
		t.Errorf("difficulties length = %d, want 3", len(res.Difficulties))
	}
	if len(res.Discriminations) != 3 {
		t.Errorf("discriminations length = %d, want 3", len(res.Discriminations))
	}
	if res.InitialLL != before {
		t.Errorf("InitialLL = %f, want %f", res.InitialLL, before)
	}
	if res.FinalLL <= before {
		t.Errorf("FinalLL = %f, want > %f", res.FinalLL, before)
	}
	if got := m.LogLikelihood(); got <= before {
		t.Errorf("LogLikelihood() after fit = %f, want > %f", got, before)
	}
}

func TestFitShapes(t *testing.T) {
	tests := []struct {
		mtype    ModelType
		wantDisc bool
		wantGues bool
	}{
		{Model1PL, false, false},
		{Model2PL, true, false},
		{Model3PL, true, true},
	}

	for _, tt := range tests {
		m, err := New(tt.mtype, sampleMatrix(), Config{MaxIterations: 10, Seed: 1})
		if err != nil {
			t.Fatalf("New(%s): %v", tt.mtype, err)
		}
		res := m.Fit()

		if len(res.Abilities) != 4 || len(res.Difficulties) != 3 {
			t.Errorf("%s: got %d abilities, %d difficulties, want 4, 3",
				tt.mtype, len(res.Abilities), len(res.Difficulties))
		}
		if tt.wantDisc && len(res.Discriminations) != 3 {
			t.Errorf("%s: discriminations length = %d, want 3", tt.mtype, len(res.Discriminations))
		}
		if !tt.wantDisc && res.Discriminations != nil {
			t.Errorf("%s: discriminations = %v, want nil", tt.mtype, res.Discriminations)
		}
		if tt.wantGues && len(res.Guessings) != 3 {
			t.Errorf("%s: guessings length = %d, want 3", tt.mtype, len(res.Guessings))
		}
		if !tt.wantGues && res.Guessings != nil {
			t.Errorf("%s: guessings = %v, want nil", tt.mtype, res.Guessings)
		}
	}
}

func TestFitClampBounds(t *testing.T) {
	// Bounds must hold for any learning rate and iteration count,
	// including rates large enough to overshoot wildly.
	configs := []Config{
		{MaxIterations: 200, LearningRate: 0.1, Seed: 7},
		{MaxIterations: 200, LearningRate: 5.0, Seed: 7},
	}

	for _, cfg := range configs {
		m, err := New(Model3PL, sampleMatrix(), cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		res := m.Fit()

		for i, a := range res.Discriminations {
			if a < MinDiscrimination || a > MaxDiscrimination {
				t.Errorf("lr=%g: discrimination[%d] = %f, want in [%g, %g]",
					cfg.LearningRate, i, a, MinDiscrimination, MaxDiscrimination)
			}
		}
		for i, c := range res.Guessings {
			if c < MinGuessing || c > MaxGuessing {
				t.Errorf("lr=%g: guessing[%d] = %f, want in [%g, %g]",
					cfg.LearningRate, i, c, MinGuessing, MaxGuessing)
			}
		}
	}
}

func TestFitDeterministicSeed(t *testing.T) {
	cfg := Config{MaxIterations: 100, LearningRate: 0.05, Seed: 123}

	m1, err := New(Model3PL, sampleMatrix(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m2, err := New(Model3PL, sampleMatrix(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r1 := m1.Fit()
	r2 := m2.Fit()

	// Identical seed and config must give bit-identical results.
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("fits with identical seed differ (-first +second):\n%s", diff)
	}
}

func TestFitSequentialCallsResume(t *testing.T) {
	m, err := New(Model2PL, sampleMatrix(), Config{
		MaxIterations: 1,
		LearningRate:  0.05,
		Seed:          9,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// One iteration per call. Each call must pick up exactly where
	// the previous one stopped, and the accepted log-likelihood
	// sequence must never decrease.
	lastFinal := m.LogLikelihood()
	for i := 0; i < 50; i++ {
		res := m.Fit()
		if res.InitialLL != lastFinal {
			t.Fatalf("call %d: InitialLL = %f, want %f", i, res.InitialLL, lastFinal)
		}
		if res.FinalLL < res.InitialLL {
			t.Fatalf("call %d: FinalLL = %f < InitialLL = %f", i, res.FinalLL, res.InitialLL)
		}
		lastFinal = res.FinalLL
	}
}

func TestFitAllMissingConvergesImmediately(t *testing.T) {
	data := Matrix{
		{Missing, Missing},
		{Missing, Missing},
	}
	m, err := New(Model2PL, data, Config{Seed: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := m.Parameters()
	res := m.Fit()

	if !res.Converged {
		t.Error("Converged = false, want true")
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
	if diff := cmp.Diff(before, res.Parameters); diff != "" {
		t.Errorf("parameters moved on all-missing data (-before +after):\n%s", diff)
	}
}

func TestFitMissingRowKeepsInitialAbility(t *testing.T) {
	data := Matrix{
		{1, 0, 1},
		{Missing, Missing, Missing},
	}
	m, err := New(Model1PL, data, Config{MaxIterations: 100, LearningRate: 0.1, Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := m.Parameters()
	res := m.Fit()

	if res.Abilities[1] != before.Abilities[1] {
		t.Errorf("missing row ability = %f, want initial %f", res.Abilities[1], before.Abilities[1])
	}
	if res.Abilities[0] == before.Abilities[0] {
		t.Error("observed row ability never moved")
	}
}

func TestFitSingleCell(t *testing.T) {
	for _, mtype := range []ModelType{Model1PL, Model2PL, Model3PL} {
		m, err := New(mtype, Matrix{{1}}, Config{MaxIterations: 50, Seed: 3})
		if err != nil {
			t.Fatalf("New(%s): %v", mtype, err)
		}
		res := m.Fit()

		if len(res.Abilities) != 1 || len(res.Difficulties) != 1 {
			t.Errorf("%s: got %d abilities, %d difficulties, want 1, 1",
				mtype, len(res.Abilities), len(res.Difficulties))
		}
		if res.FinalLL < res.InitialLL {
			t.Errorf("%s: FinalLL = %f < InitialLL = %f", mtype, res.FinalLL, res.InitialLL)
		}
	}
}

func TestFitTreatMissingAsIncorrect(t *testing.T) {
	// Missing cells scored as incorrect must behave exactly like a
	// matrix with zeros in their place.
	cfg := Config{MaxIterations: 100, LearningRate: 0.1, Seed: 21}

	withMissing, err := New(Model2PL, Matrix{{1, Missing}, {Missing, 0}}, Config{
		MaxIterations:   cfg.MaxIterations,
		LearningRate:    cfg.LearningRate,
		Seed:            cfg.Seed,
		MissingStrategy: MissingTreatIncorrect,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	substituted, err := New(Model2PL, Matrix{{1, 0}, {0, 0}}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r1 := withMissing.Fit()
	r2 := substituted.Fit()

	if diff := cmp.Diff(r2, r1); diff != "" {
		t.Errorf("treat_as_incorrect differs from substituted zeros (-substituted +missing):\n%s", diff)
	}
}

func TestFitLearningRateDecaysOnRevert(t *testing.T) {
	// An absurd learning rate saturates the probabilities immediately;
	// the regression must trigger revert-and-decay, never an accepted
	// worse step.
	m, err := New(Model2PL, sampleMatrix(), Config{
		MaxIterations: 50,
		LearningRate:  100,
		DecayFactor:   0.5,
		Seed:          7,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := m.LogLikelihood()
	res := m.Fit()

	if res.FinalLearningRate >= 100 {
		t.Errorf("FinalLearningRate = %f, want < 100", res.FinalLearningRate)
	}
	if res.FinalLL < before {
		t.Errorf("FinalLL = %f, want >= %f", res.FinalLL, before)
	}
}

func TestParametersAreCopies(t *testing.T) {
	m, err := New(Model3PL, sampleMatrix(), Config{MaxIterations: 10, Seed: 13})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := m.Parameters()
	p.Abilities[0] = 999
	p.Difficulties[0] = 999
	p.Discriminations[0] = 999
	p.Guessings[0] = 999

	fresh := m.Parameters()
	if fresh.Abilities[0] == 999 || fresh.Difficulties[0] == 999 ||
		fresh.Discriminations[0] == 999 || fresh.Guessings[0] == 999 {
		t.Error("mutating returned Parameters changed model state")
	}

	res := m.Fit()
	res.Abilities[0] = 999
	if m.Parameters().Abilities[0] == 999 {
		t.Error("mutating Fit result changed model state")
	}
}
