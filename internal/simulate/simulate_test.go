package simulate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/stat"

	"github.com/itembank/backend/internal/irt"
)

func TestDrawParamsShapes(t *testing.T) {
	tests := []struct {
		model     irt.ModelType
		wantDisc  bool
		wantGuess bool
	}{
		{irt.Model1PL, false, false},
		{irt.Model2PL, true, false},
		{irt.Model3PL, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.model), func(t *testing.T) {
			p, err := New(1).DrawParams(tt.model, 5, 3)
			if err != nil {
				t.Fatalf("DrawParams returned error: %v", err)
			}
			if len(p.Abilities) != 5 || len(p.Difficulties) != 3 {
				t.Errorf("shapes = %d abilities, %d difficulties, want 5, 3",
					len(p.Abilities), len(p.Difficulties))
			}
			if (p.Discriminations != nil) != tt.wantDisc {
				t.Errorf("discriminations present = %v, want %v", p.Discriminations != nil, tt.wantDisc)
			}
			if (p.Guessings != nil) != tt.wantGuess {
				t.Errorf("guessings present = %v, want %v", p.Guessings != nil, tt.wantGuess)
			}
		})
	}
}

func TestDrawParamsRanges(t *testing.T) {
	p, err := New(3).DrawParams(irt.Model3PL, 50, 100)
	if err != nil {
		t.Fatalf("DrawParams returned error: %v", err)
	}
	for j, a := range p.Discriminations {
		if a < 0.5 || a > 1.5 {
			t.Errorf("discrimination[%d] = %v, want within [0.5, 1.5]", j, a)
		}
	}
	for j, c := range p.Guessings {
		if c < 0.0 || c > 0.3 {
			t.Errorf("guessing[%d] = %v, want within [0.0, 0.3]", j, c)
		}
	}
}

func TestDrawParamsRejects(t *testing.T) {
	if _, err := New(1).DrawParams("4pl", 5, 3); !errors.Is(err, irt.ErrUnknownModel) {
		t.Errorf("DrawParams(4pl) error = %v, want ErrUnknownModel", err)
	}
	if _, err := New(1).DrawParams(irt.Model1PL, 0, 3); !errors.Is(err, ErrBadDesign) {
		t.Errorf("DrawParams(0 persons) error = %v, want ErrBadDesign", err)
	}
}

func TestMatrixDeterministic(t *testing.T) {
	run := func() irt.Matrix {
		g := New(7)
		p, err := g.DrawParams(irt.Model2PL, 20, 10)
		if err != nil {
			t.Fatalf("DrawParams returned error: %v", err)
		}
		data, err := g.Matrix(irt.Model2PL, p, 0.2)
		if err != nil {
			t.Fatalf("Matrix returned error: %v", err)
		}
		return data
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different matrices:\n%s", diff)
	}
}

func TestMatrixNoMissingWhenRateZero(t *testing.T) {
	g := New(11)
	p, err := g.DrawParams(irt.Model1PL, 30, 8)
	if err != nil {
		t.Fatalf("DrawParams returned error: %v", err)
	}
	data, err := g.Matrix(irt.Model1PL, p, 0)
	if err != nil {
		t.Fatalf("Matrix returned error: %v", err)
	}

	for i, row := range data {
		for j, cell := range row {
			if cell != irt.Correct && cell != irt.Incorrect {
				t.Fatalf("cell (%d,%d) = %d, want 0 or 1", i, j, cell)
			}
		}
	}
}

func TestMatrixMissingRate(t *testing.T) {
	g := New(13)
	p, err := g.DrawParams(irt.Model1PL, 200, 50)
	if err != nil {
		t.Fatalf("DrawParams returned error: %v", err)
	}
	data, err := g.Matrix(irt.Model1PL, p, 0.5)
	if err != nil {
		t.Fatalf("Matrix returned error: %v", err)
	}

	missing := 0
	for _, row := range data {
		for _, cell := range row {
			if cell == irt.Missing {
				missing++
			}
		}
	}
	frac := float64(missing) / float64(200*50)
	if frac < 0.4 || frac > 0.6 {
		t.Errorf("missing fraction = %v, want near 0.5", frac)
	}
}

func TestMatrixRejects(t *testing.T) {
	ok := irt.Parameters{Abilities: []float64{0}, Difficulties: []float64{0}}

	tests := []struct {
		name    string
		model   irt.ModelType
		params  irt.Parameters
		rate    float64
		wantErr error
	}{
		{"negative rate", irt.Model1PL, ok, -0.1, ErrBadMissingRate},
		{"rate of one", irt.Model1PL, ok, 1.0, ErrBadMissingRate},
		{"no abilities", irt.Model1PL, irt.Parameters{Difficulties: []float64{0}}, 0, ErrBadDesign},
		{"missing discriminations", irt.Model2PL, ok, 0, ErrShapeMismatch},
		{"missing guessings", irt.Model3PL, irt.Parameters{
			Abilities:       []float64{0},
			Difficulties:    []float64{0},
			Discriminations: []float64{1},
		}, 0, ErrShapeMismatch},
		{"unknown model", "4pl", ok, 0, irt.ErrUnknownModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1).Matrix(tt.model, tt.params, tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Matrix error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatrixGuessingFloor(t *testing.T) {
	// Hopeless examinees still answer correctly at the guessing rate.
	persons, items := 40, 50
	p := irt.Parameters{
		Abilities:       make([]float64, persons),
		Difficulties:    make([]float64, items),
		Discriminations: make([]float64, items),
		Guessings:       make([]float64, items),
	}
	for i := range p.Abilities {
		p.Abilities[i] = -50
	}
	for j := 0; j < items; j++ {
		p.Discriminations[j] = 1
		p.Guessings[j] = 0.3
	}

	data, err := New(17).Matrix(irt.Model3PL, p, 0)
	if err != nil {
		t.Fatalf("Matrix returned error: %v", err)
	}

	correct := 0
	for _, row := range data {
		for _, cell := range row {
			if cell == irt.Correct {
				correct++
			}
		}
	}
	frac := float64(correct) / float64(persons*items)
	if frac < 0.25 || frac > 0.35 {
		t.Errorf("correct fraction = %v, want near the guessing rate 0.3", frac)
	}
}

func TestFitRecoversParameterOrder(t *testing.T) {
	g := New(23)
	truth, err := g.DrawParams(irt.Model1PL, 300, 20)
	if err != nil {
		t.Fatalf("DrawParams returned error: %v", err)
	}
	data, err := g.Matrix(irt.Model1PL, truth, 0)
	if err != nil {
		t.Fatalf("Matrix returned error: %v", err)
	}

	m, err := irt.New(irt.Model1PL, data, irt.Config{MaxIterations: 500, Seed: 23})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	res := m.Fit()

	if res.FinalLL <= res.InitialLL {
		t.Errorf("FinalLL = %v, want above InitialLL %v", res.FinalLL, res.InitialLL)
	}
	if r := stat.Correlation(truth.Difficulties, res.Difficulties, nil); r < 0.6 {
		t.Errorf("difficulty correlation with generating values = %v, want > 0.6", r)
	}
	if r := stat.Correlation(truth.Abilities, res.Abilities, nil); r < 0.5 {
		t.Errorf("ability correlation with generating values = %v, want > 0.5", r)
	}
}
