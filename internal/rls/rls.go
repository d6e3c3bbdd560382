// Package rls implements recursive-least-squares spatial noise cancellation.
// Target channels are regressed per sample against reference channels plus a
// bias term; the predicted noise is subtracted, leaving the residual.
package rls

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// initialInverseScale conditions the inverse-correlation matrix at the
	// warmup boundary: a large multiple of identity keeps the first few
	// adaptive steps numerically tame.
	initialInverseScale = 1e4

	// Forgetting factor bounds (exclusive).
	minLambda = 0.0
	maxLambda = 1.0

	percentScale = 100.0
)

// State enumerates the canceller's two phases.
type State int

const (
	// StateWarmup passes samples through unchanged while buffering them for
	// the ordinary-least-squares coefficient initialization.
	StateWarmup State = iota

	// StateAdaptive updates coefficients recursively on every sample.
	StateAdaptive
)

// Params configures a canceller run.
type Params struct {
	// Lambda is the RLS forgetting factor in (0, 1). Values close to 1
	// adapt slowly and stably; smaller values track faster with more
	// variance. This is a caller-chosen trade-off, not an error condition.
	Lambda float64

	// MinSamples is the warmup length before adaptation begins. Must be at
	// least numRefs+1 so the warmup least-squares system is overdetermined.
	MinSamples int
}

// Validate checks parameters against the given reference channel count.
func (p *Params) Validate(numRefs int) error {
	if p.Lambda <= minLambda || p.Lambda >= maxLambda {
		return fmt.Errorf("forgetting factor must be in (0, 1), got %g", p.Lambda)
	}
	if numRefs < 1 {
		return fmt.Errorf("at least one reference channel required, got %d", numRefs)
	}
	if p.MinSamples < numRefs+1 {
		return fmt.Errorf("warmup length %d too short for %d reference channels (need at least %d)",
			p.MinSamples, numRefs, numRefs+1)
	}
	return nil
}

// Canceller owns the RLS state for one run: the regression coefficient
// matrix (one column per target, one row per reference plus bias) and the
// inverse-correlation matrix. State is mutated sample by sample and
// discarded with the canceller; there is no cross-run persistence.
type Canceller struct {
	params     Params
	numRefs    int
	numTargets int
	state      State
	seen       int

	// Warmup buffers, row per sample.
	warmRefs    *mat.Dense // minSamples × (numRefs+1), bias column included
	warmTargets *mat.Dense // minSamples × numTargets

	coeffs  *mat.Dense // (numRefs+1) × numTargets
	inverse *mat.Dense // (numRefs+1) × (numRefs+1)

	// Scratch vectors reused across Advance calls.
	u  *mat.VecDense // augmented reference (bias, refs...)
	pu *mat.VecDense // inverse · u
	k  *mat.VecDense // gain vector
	e  *mat.VecDense // prediction error per target
}

// NewCanceller creates a canceller for the given channel counts.
func NewCanceller(numRefs, numTargets int, params Params) (*Canceller, error) {
	if err := params.Validate(numRefs); err != nil {
		return nil, err
	}
	if numTargets < 1 {
		return nil, fmt.Errorf("at least one target channel required, got %d", numTargets)
	}

	dim := numRefs + 1
	return &Canceller{
		params:      params,
		numRefs:     numRefs,
		numTargets:  numTargets,
		state:       StateWarmup,
		warmRefs:    mat.NewDense(params.MinSamples, dim, nil),
		warmTargets: mat.NewDense(params.MinSamples, numTargets, nil),
		coeffs:      mat.NewDense(dim, numTargets, nil),
		inverse:     mat.NewDense(dim, dim, nil),
		u:           mat.NewVecDense(dim, nil),
		pu:          mat.NewVecDense(dim, nil),
		k:           mat.NewVecDense(dim, nil),
		e:           mat.NewVecDense(numTargets, nil),
	}, nil
}

// State returns the current phase.
func (c *Canceller) State() State {
	return c.state
}

// Advance consumes one sample of reference and target values and writes the
// residual for each target channel to dst. During warmup the residual is the
// unmodified target sample.
func (c *Canceller) Advance(refs, targets, dst []float64) error {
	if len(refs) != c.numRefs {
		return fmt.Errorf("reference sample has %d values, expected %d", len(refs), c.numRefs)
	}
	if len(targets) != c.numTargets || len(dst) < c.numTargets {
		return fmt.Errorf("target sample has %d values, expected %d", len(targets), c.numTargets)
	}

	if c.state == StateWarmup {
		c.warmRefs.Set(c.seen, 0, 1.0)
		for j, v := range refs {
			c.warmRefs.Set(c.seen, j+1, v)
		}
		for j, v := range targets {
			c.warmTargets.Set(c.seen, j, v)
		}
		copy(dst[:c.numTargets], targets)

		c.seen++
		if c.seen == c.params.MinSamples {
			if err := c.initFromWarmup(); err != nil {
				return err
			}
			c.state = StateAdaptive
		}
		return nil
	}

	c.adaptStep(refs, targets, dst)
	c.seen++
	return nil
}

// initFromWarmup solves the warmup window by ordinary least squares and
// conditions the inverse-correlation matrix.
func (c *Canceller) initFromWarmup() error {
	// [1 R]ᵗ·w ≈ T across the warmup rows; QR-based least squares.
	if err := c.coeffs.Solve(c.warmRefs, c.warmTargets); err != nil {
		return fmt.Errorf("warmup least-squares solve failed (rank-deficient reference window): %w", err)
	}

	dim := c.numRefs + 1
	c.inverse.Zero()
	for i := range dim {
		c.inverse.Set(i, i, initialInverseScale)
	}
	return nil
}

// adaptStep performs one RLS update and writes residuals.
func (c *Canceller) adaptStep(refs, targets, dst []float64) {
	c.u.SetVec(0, 1.0)
	for j, v := range refs {
		c.u.SetVec(j+1, v)
	}

	// Gain vector k = P·u / (λ + uᵗ·P·u).
	c.pu.MulVec(c.inverse, c.u)
	denom := c.params.Lambda + mat.Dot(c.u, c.pu)
	c.k.ScaleVec(1.0/denom, c.pu)

	// Prediction error per target: e = t − wᵗ·u.
	for j := range c.numTargets {
		pred := mat.Dot(c.coeffs.ColView(j), c.u)
		c.e.SetVec(j, targets[j]-pred)
	}

	// Coefficient update: W += k·eᵗ.
	c.coeffs.RankOne(c.coeffs, 1.0, c.k, c.e)

	// Inverse-correlation update: P = (P − k·(P·u)ᵗ) / λ.
	// P is symmetric, so uᵗ·P equals (P·u)ᵗ.
	c.inverse.RankOne(c.inverse, -1.0, c.k, c.pu)
	c.inverse.Scale(1.0/c.params.Lambda, c.inverse)

	// Residual: t − wᵗ·u with the updated coefficients.
	for j := range c.numTargets {
		pred := mat.Dot(c.coeffs.ColView(j), c.u)
		dst[j] = targets[j] - pred
	}
}

// Coefficients returns a copy of the current regression coefficient matrix,
// one column per target with the bias term in row 0.
func (c *Canceller) Coefficients() *mat.Dense {
	out := mat.NewDense(c.numRefs+1, c.numTargets, nil)
	out.Copy(c.coeffs)
	return out
}

// Result summarizes a whole-matrix run.
type Result struct {
	// ReductionPercent is 100·(1 − mean variance after / mean variance
	// before), aggregated across all target channels.
	ReductionPercent float64
}

// Run processes entire reference and target matrices and returns the
// residual matrix plus run statistics. Reference and target sample counts
// must match exactly; a mismatch is a configuration error fatal to the call.
func Run(refs, targets [][]float64, params Params) ([][]float64, Result, error) {
	numRefs := len(refs)
	numTargets := len(targets)

	c, err := NewCanceller(numRefs, numTargets, params)
	if err != nil {
		return nil, Result{}, err
	}

	numSamples := -1
	for _, row := range append(append([][]float64{}, refs...), targets...) {
		if numSamples == -1 {
			numSamples = len(row)
		} else if len(row) != numSamples {
			return nil, Result{}, fmt.Errorf(
				"reference and target sample counts must match exactly: got %d and %d",
				numSamples, len(row))
		}
	}
	if numSamples < params.MinSamples {
		return nil, Result{}, fmt.Errorf(
			"run of %d samples shorter than warmup length %d", numSamples, params.MinSamples)
	}

	out := make([][]float64, numTargets)
	for j := range out {
		out[j] = make([]float64, numSamples)
	}

	refSample := make([]float64, numRefs)
	targetSample := make([]float64, numTargets)
	residual := make([]float64, numTargets)

	for i := range numSamples {
		for j := range refs {
			refSample[j] = refs[j][i]
		}
		for j := range targets {
			targetSample[j] = targets[j][i]
		}
		if err := c.Advance(refSample, targetSample, residual); err != nil {
			return nil, Result{}, err
		}
		for j := range out {
			out[j][i] = residual[j]
		}
	}

	return out, Result{ReductionPercent: reductionPercent(targets, out)}, nil
}

// reductionPercent computes the aggregate variance reduction across target
// channels.
func reductionPercent(before, after [][]float64) float64 {
	var varBefore, varAfter float64
	for j := range before {
		varBefore += stat.Variance(before[j], nil)
		varAfter += stat.Variance(after[j], nil)
	}
	if varBefore == 0 {
		return 0
	}
	return percentScale * (1 - varAfter/varBefore)
}
