package irt

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"
)

// Model holds the mutable estimation state for one response matrix.
// Each instance owns its parameter vectors exclusively; the matrix is
// shared with the caller and read-only. Not safe for concurrent use.
type Model struct {
	mtype ModelType
	data  Matrix
	cfg   Config
	v     variant

	abilities       []float64
	difficulties    []float64
	discriminations []float64 // nil for 1PL
	guessings       []float64 // nil for 1PL and 2PL

	lr  float64 // decays on reverted steps, survives across Fit calls
	rng *rand.Rand
}

// New validates the matrix and configuration and returns a model with
// randomly initialized parameters. Abilities and difficulties start
// uniformly in [-0.25, 0.25], discriminations in [0.5, 1.5], and
// guessings in [0.0, 0.3].
func New(mtype ModelType, data Matrix, cfg Config) (*Model, error) {
	if !ValidModelTypes[mtype] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, mtype)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if !ValidMissingStrategies[cfg.MissingStrategy] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.MissingStrategy)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := &Model{
		mtype: mtype,
		data:  data,
		cfg:   cfg,
		lr:    cfg.LearningRate,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	switch mtype {
	case Model1PL:
		m.v = onePL{}
	case Model2PL:
		m.v = twoPL{}
	case Model3PL:
		m.v = threePL{}
	}

	persons, items := data.Dims()
	m.abilities = m.uniform(persons, -0.25, 0.25)
	m.difficulties = m.uniform(items, -0.25, 0.25)
	if mtype == Model2PL || mtype == Model3PL {
		m.discriminations = m.uniform(items, 0.5, 1.5)
	}
	if mtype == Model3PL {
		m.guessings = m.uniform(items, 0.0, 0.3)
	}
	return m, nil
}

// Type returns the model variant.
func (m *Model) Type() ModelType { return m.mtype }

func (m *Model) uniform(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + m.rng.Float64()*(hi-lo)
	}
	return out
}

// Parameters is the output of a fit: one value per person for
// abilities, one per item for the item vectors. Discriminations are
// present for 2PL and 3PL, guessings for 3PL only.
type Parameters struct {
	Abilities       []float64 `json:"abilities"`
	Difficulties    []float64 `json:"difficulties"`
	Discriminations []float64 `json:"discriminations,omitempty"`
	Guessings       []float64 `json:"guessings,omitempty"`
}

// Parameters returns a copy of the current parameter state. The
// returned slices never alias the model's internal vectors.
func (m *Model) Parameters() Parameters {
	return Parameters{
		Abilities:       slices.Clone(m.abilities),
		Difficulties:    slices.Clone(m.difficulties),
		Discriminations: slices.Clone(m.discriminations),
		Guessings:       slices.Clone(m.guessings),
	}
}

// logEpsilon keeps log arguments positive when a probability saturates.
const logEpsilon = 1e-15

// LogLikelihood returns the log-likelihood of the observed responses
// under the current parameters. Callable before and after Fit.
func (m *Model) LogLikelihood() float64 {
	var sum float64
	for i, row := range m.data {
		theta := m.abilities[i]
		for j, cell := range row {
			v, skip := m.cfg.MissingStrategy.resolve(cell)
			if skip {
				continue
			}
			p := m.v.probability(m, theta, j)
			if v == 1 {
				sum += math.Log(p + logEpsilon)
			} else {
				sum += math.Log((1.0 - p) + logEpsilon)
			}
		}
	}
	return sum
}

// gradient holds one freshly allocated accumulator per parameter type.
// Slices for parameters the variant lacks stay nil.
type gradient struct {
	abilities       []float64
	difficulties    []float64
	discriminations []float64
	guessings       []float64
}

func (m *Model) computeGradient() *gradient {
	g := &gradient{
		abilities:    make([]float64, len(m.abilities)),
		difficulties: make([]float64, len(m.difficulties)),
	}
	if m.discriminations != nil {
		g.discriminations = make([]float64, len(m.discriminations))
	}
	if m.guessings != nil {
		g.guessings = make([]float64, len(m.guessings))
	}
	for i, row := range m.data {
		for j, cell := range row {
			v, skip := m.cfg.MissingStrategy.resolve(cell)
			if skip {
				continue
			}
			p := m.v.probability(m, m.abilities[i], j)
			m.v.accumulate(m, g, i, j, v-p)
		}
	}
	return g
}

// variant is the capability set that distinguishes the three model
// types: forming a response probability from the item's parameters,
// and spreading a cell's error into the gradient accumulators. The
// optimizer loop itself is shared.
type variant interface {
	probability(m *Model, theta float64, item int) float64
	accumulate(m *Model, g *gradient, person, item int, err float64)
}

type onePL struct{}

func (onePL) probability(m *Model, theta float64, j int) float64 {
	return logistic(theta - m.difficulties[j])
}

func (onePL) accumulate(m *Model, g *gradient, i, j int, err float64) {
	g.abilities[i] += err
	g.difficulties[j] -= err
}

type twoPL struct{}

func (twoPL) probability(m *Model, theta float64, j int) float64 {
	return logistic(m.discriminations[j] * (theta - m.difficulties[j]))
}

func (twoPL) accumulate(m *Model, g *gradient, i, j int, err float64) {
	a := m.discriminations[j]
	g.abilities[i] += err * a
	g.difficulties[j] -= err * a
	g.discriminations[j] += err * (m.abilities[i] - m.difficulties[j])
}

type threePL struct{}

func (threePL) probability(m *Model, theta float64, j int) float64 {
	c := m.guessings[j]
	return c + (1.0-c)*logistic(m.discriminations[j]*(theta-m.difficulties[j]))
}

func (threePL) accumulate(m *Model, g *gradient, i, j int, err float64) {
	a := m.discriminations[j]
	g.abilities[i] += err * a
	g.difficulties[j] -= err * a
	g.discriminations[j] += err * (m.abilities[i] - m.difficulties[j]) * (1.0 - m.guessings[j])
	// Simplified guessing update, not the analytic derivative with
	// respect to c. Fitted results depend on this form; keep it.
	g.guessings[j] += err
}

// Probability evaluates the response model at a single cell from
// explicit parameter values. 1PL ignores discrimination and guessing,
// 2PL ignores guessing; any other type evaluates as 1PL.
func Probability(mtype ModelType, theta, difficulty, discrimination, guessing float64) float64 {
	switch mtype {
	case Model2PL:
		return logistic(discrimination * (theta - difficulty))
	case Model3PL:
		return guessing + (1.0-guessing)*logistic(discrimination*(theta-difficulty))
	default:
		return logistic(theta - difficulty)
	}
}
