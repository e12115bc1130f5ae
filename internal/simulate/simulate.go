// Package simulate produces synthetic response matrices from known
// parameter values, for benchmarking the engine and for parameter
// recovery checks.
package simulate

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/itembank/backend/internal/irt"
)

var (
	ErrBadDesign      = errors.New("simulate: persons and items must be positive")
	ErrBadMissingRate = errors.New("simulate: missing rate must be in [0, 1)")
	ErrShapeMismatch  = errors.New("simulate: parameter lengths do not match")
)

// Generator samples parameters and matrices from one seeded source, so
// a full simulation is reproducible from its seed.
type Generator struct {
	rng *rand.Rand
}

// New seeds a generator. Seed 0 takes the current time, matching the
// engine's convention.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// DrawParams samples generating values for a persons-by-items design:
// abilities and difficulties from the standard normal, discriminations
// uniform on [0.5, 1.5], guessings uniform on [0.0, 0.3]. Vectors the
// model does not use stay nil.
func (g *Generator) DrawParams(mtype irt.ModelType, persons, items int) (irt.Parameters, error) {
	if !irt.ValidModelTypes[mtype] {
		return irt.Parameters{}, fmt.Errorf("%w: %q", irt.ErrUnknownModel, mtype)
	}
	if persons < 1 || items < 1 {
		return irt.Parameters{}, ErrBadDesign
	}

	p := irt.Parameters{
		Abilities:    g.normals(persons),
		Difficulties: g.normals(items),
	}
	if mtype != irt.Model1PL {
		p.Discriminations = g.uniforms(items, 0.5, 1.5)
	}
	if mtype == irt.Model3PL {
		p.Guessings = g.uniforms(items, 0.0, 0.3)
	}
	return p, nil
}

// Matrix samples one Bernoulli response per cell at the model's
// probability, then marks cells missing at the given rate.
func (g *Generator) Matrix(mtype irt.ModelType, p irt.Parameters, missingRate float64) (irt.Matrix, error) {
	if !irt.ValidModelTypes[mtype] {
		return nil, fmt.Errorf("%w: %q", irt.ErrUnknownModel, mtype)
	}
	if missingRate < 0 || missingRate >= 1 {
		return nil, ErrBadMissingRate
	}
	if len(p.Abilities) == 0 || len(p.Difficulties) == 0 {
		return nil, ErrBadDesign
	}
	if mtype != irt.Model1PL && len(p.Discriminations) != len(p.Difficulties) {
		return nil, ErrShapeMismatch
	}
	if mtype == irt.Model3PL && len(p.Guessings) != len(p.Difficulties) {
		return nil, ErrShapeMismatch
	}

	data := make(irt.Matrix, len(p.Abilities))
	for i, theta := range p.Abilities {
		row := make([]irt.Response, len(p.Difficulties))
		for j, b := range p.Difficulties {
			a, c := 1.0, 0.0
			if p.Discriminations != nil {
				a = p.Discriminations[j]
			}
			if p.Guessings != nil {
				c = p.Guessings[j]
			}

			cell := irt.Incorrect
			if g.rng.Float64() < irt.Probability(mtype, theta, b, a, c) {
				cell = irt.Correct
			}
			if missingRate > 0 && g.rng.Float64() < missingRate {
				cell = irt.Missing
			}
			row[j] = cell
		}
		data[i] = row
	}
	return data, nil
}

func (g *Generator) normals(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = g.rng.NormFloat64()
	}
	return out
}

func (g *Generator) uniforms(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + g.rng.Float64()*(hi-lo)
	}
	return out
}
