// Package hfc implements homogeneous field compensation: interference that
// is spatially uniform across the sensor array projects onto the span of the
// sensor orientation vectors and is removed by an orthogonal projection.
package hfc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// orientationDims is the dimensionality of a sensor orientation vector.
	orientationDims = 3

	// defaultTolScale multiplies the machine-epsilon rank tolerance. Raise
	// it to merge near-degenerate orientation directions.
	defaultTolScale = 1.0

	percentScale = 100.0
)

// Params configures a projector.
type Params struct {
	// Orientations holds one unit vector per channel, [x, y, z]. The row
	// order must match the channel order of the data matrix.
	Orientations [][orientationDims]float64

	// TolScale scales the singular-value rank cutoff. Zero selects the
	// default of 1.
	TolScale float64
}

// Projector removes the homogeneous-field subspace from multichannel data.
// The projection matrix is built once from the orientation geometry and is
// independent of the data.
type Projector struct {
	numChannels int
	projection  *mat.Dense // channels × channels, nil when rank is zero
	rank        int
	warnings    []string
}

// Result summarizes one projection run.
type Result struct {
	// Rank is the dimension of the removed homogeneous subspace, at most 3.
	Rank int

	// ReductionPercent is 100·(1 − mean variance after / before) across
	// channels.
	ReductionPercent float64
}

// New builds the projector from the sensor orientation geometry. A rank-zero
// orientation matrix (all sensors degenerate or zero) is not an error: the
// projector passes data through unchanged and records a warning.
func New(params Params) (*Projector, error) {
	numChannels := len(params.Orientations)
	if numChannels < 1 {
		return nil, fmt.Errorf("at least one sensor orientation required")
	}
	tolScale := params.TolScale
	if tolScale == 0 {
		tolScale = defaultTolScale
	}
	if tolScale < 0 {
		return nil, fmt.Errorf("tolerance scale must be non-negative, got %g", tolScale)
	}

	// Design matrix: one row per channel, columns are the field components.
	design := mat.NewDense(numChannels, orientationDims, nil)
	for ch, o := range params.Orientations {
		for d := 0; d < orientationDims; d++ {
			design.Set(ch, d, o[d])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(design, mat.SVDThin) {
		return nil, fmt.Errorf("orientation matrix SVD failed to converge")
	}

	sigma := svd.Values(nil)
	rank := numericalRank(sigma, numChannels, orientationDims, tolScale)

	p := &Projector{numChannels: numChannels, rank: rank}
	if rank == 0 {
		p.warnings = append(p.warnings,
			"orientation matrix has rank 0, homogeneous field compensation disabled")
		return p, nil
	}

	var u mat.Dense
	svd.UTo(&u)
	basis := u.Slice(0, numChannels, 0, rank)

	// P = I − U_r·U_rᵗ.
	p.projection = mat.NewDense(numChannels, numChannels, nil)
	p.projection.Mul(basis, basis.T())
	p.projection.Scale(-1, p.projection)
	for i := 0; i < numChannels; i++ {
		p.projection.Set(i, i, p.projection.At(i, i)+1)
	}
	return p, nil
}

// numericalRank counts singular values above the scaled machine-epsilon
// cutoff relative to the largest.
func numericalRank(sigma []float64, rows, cols int, tolScale float64) int {
	if len(sigma) == 0 {
		return 0
	}
	tol := tolScale * float64(max(rows, cols)) * machineEpsilon() * sigma[0]
	rank := 0
	for _, s := range sigma {
		if s > tol {
			rank++
		}
	}
	return rank
}

func machineEpsilon() float64 {
	return math.Nextafter(1, 2) - 1
}

// Rank returns the dimension of the removed subspace.
func (p *Projector) Rank() int {
	return p.rank
}

// Warnings returns construction-time warnings.
func (p *Projector) Warnings() []string {
	return p.warnings
}

// ProjectionMatrix returns a copy of the channels × channels projection, or
// nil when the projector is a passthrough.
func (p *Projector) ProjectionMatrix() *mat.Dense {
	if p.projection == nil {
		return nil
	}
	r, c := p.projection.Dims()
	out := mat.NewDense(r, c, nil)
	out.Copy(p.projection)
	return out
}

// Process applies the projection to a channels × samples matrix and returns
// a new matrix of identical shape plus run statistics. The channel count
// must match the orientation geometry.
func (p *Projector) Process(data [][]float64) ([][]float64, Result, error) {
	numChannels := len(data)
	if numChannels != p.numChannels {
		return nil, Result{}, fmt.Errorf(
			"data has %d channels, orientation geometry has %d", numChannels, p.numChannels)
	}

	numSamples := -1
	for ch, row := range data {
		if numSamples == -1 {
			numSamples = len(row)
		} else if len(row) != numSamples {
			return nil, Result{}, fmt.Errorf(
				"channel %d has %d samples, expected %d", ch, len(row), numSamples)
		}
	}

	out := make([][]float64, numChannels)
	if p.projection == nil {
		for ch := range data {
			out[ch] = append([]float64(nil), data[ch]...)
		}
		return out, Result{Rank: 0, ReductionPercent: 0}, nil
	}

	// Column-at-a-time matrix-vector products keep memory flat for long
	// recordings.
	in := mat.NewVecDense(numChannels, nil)
	res := mat.NewVecDense(numChannels, nil)
	for ch := range out {
		out[ch] = make([]float64, numSamples)
	}
	for i := 0; i < numSamples; i++ {
		for ch := range data {
			in.SetVec(ch, data[ch][i])
		}
		res.MulVec(p.projection, in)
		for ch := range out {
			out[ch][i] = res.AtVec(ch)
		}
	}

	return out, Result{
		Rank:             p.rank,
		ReductionPercent: reductionPercent(data, out),
	}, nil
}

// reductionPercent computes the aggregate variance reduction across
// channels.
func reductionPercent(before, after [][]float64) float64 {
	var varBefore, varAfter float64
	for ch := range before {
		varBefore += stat.Variance(before[ch], nil)
		varAfter += stat.Variance(after[ch], nil)
	}
	if varBefore == 0 {
		return 0
	}
	return percentScale * (1 - varAfter/varBefore)
}
