package irt

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Result reports one Fit run. Parameters are copies of the final
// state; Iterations counts loop passes including reverted ones.
type Result struct {
	Parameters
	Iterations        int     `json:"iterations"`
	Converged         bool    `json:"converged"`
	InitialLL         float64 `json:"initial_log_likelihood"`
	FinalLL           float64 `json:"final_log_likelihood"`
	FinalLearningRate float64 `json:"final_learning_rate"`
}

// Fit runs adaptive gradient ascent from the model's current state.
// Each iteration applies a tentative update; a step that lowers the
// log-likelihood is reverted and shrinks the learning rate by the
// decay factor, while an accepted step checks the dual convergence
// test (likelihood plateau and parameter plateau). Exhausting
// MaxIterations is a normal outcome, not an error.
//
// Calling Fit again resumes from wherever the parameters are; it does
// not re-initialize.
func (m *Model) Fit() Result {
	prevLL := m.LogLikelihood()
	res := Result{InitialLL: prevLL}

	for iter := 0; iter < m.cfg.MaxIterations; iter++ {
		res.Iterations = iter + 1

		grad := m.computeGradient()
		old := m.snapshot()
		m.applyUpdate(grad)

		currentLL := m.LogLikelihood()
		delta := m.paramDelta(old)

		if currentLL < prevLL {
			// Overshot. Walk the step back and try a smaller one.
			m.restore(old)
			m.lr *= m.cfg.DecayFactor
			continue
		}

		llDiff := math.Abs(currentLL - prevLL)
		prevLL = currentLL
		if llDiff < m.cfg.Tolerance && delta < m.cfg.ParamTolerance {
			res.Converged = true
			break
		}
	}

	res.FinalLL = prevLL
	res.FinalLearningRate = m.lr
	res.Parameters = m.Parameters()
	return res
}

// snapshot captures independent copies of every parameter vector so a
// revert cannot be corrupted by aliasing.
type snapshot struct {
	abilities       []float64
	difficulties    []float64
	discriminations []float64
	guessings       []float64
}

func (m *Model) snapshot() snapshot {
	return snapshot{
		abilities:       slices.Clone(m.abilities),
		difficulties:    slices.Clone(m.difficulties),
		discriminations: slices.Clone(m.discriminations),
		guessings:       slices.Clone(m.guessings),
	}
}

func (m *Model) restore(s snapshot) {
	copy(m.abilities, s.abilities)
	copy(m.difficulties, s.difficulties)
	copy(m.discriminations, s.discriminations)
	copy(m.guessings, s.guessings)
}

// applyUpdate moves every parameter vector along its gradient scaled
// by the current learning rate, then clamps the bounded vectors.
// Clamping happens after the additive update, not before.
func (m *Model) applyUpdate(g *gradient) {
	floats.AddScaled(m.abilities, m.lr, g.abilities)
	floats.AddScaled(m.difficulties, m.lr, g.difficulties)
	if m.discriminations != nil {
		floats.AddScaled(m.discriminations, m.lr, g.discriminations)
		clampSlice(m.discriminations, MinDiscrimination, MaxDiscrimination)
	}
	if m.guessings != nil {
		floats.AddScaled(m.guessings, m.lr, g.guessings)
		clampSlice(m.guessings, MinGuessing, MaxGuessing)
	}
}

func clampSlice(xs []float64, lo, hi float64) {
	for i, x := range xs {
		if x < lo {
			xs[i] = lo
		}
		if x > hi {
			xs[i] = hi
		}
	}
}

// paramDelta is the mean absolute elementwise change pooled across all
// parameter types: one flat average, not per-type. An empty pool
// reports zero, so a state where nothing can move counts as converged
// rather than dividing by zero.
func (m *Model) paramDelta(old snapshot) float64 {
	var sum float64
	var n int
	accum := func(cur, prev []float64) {
		for i := range cur {
			sum += math.Abs(cur[i] - prev[i])
		}
		n += len(cur)
	}
	accum(m.abilities, old.abilities)
	accum(m.difficulties, old.difficulties)
	accum(m.discriminations, old.discriminations)
	accum(m.guessings, old.guessings)
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
