package heatmap

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// errSingular reports a sample configuration the linear system cannot be solved for.
var errSingular = errors.New("rbf system is singular")

// maxCondition is the largest condition number accepted for the RBF system.
const maxCondition = 1e14

// rbf is a fitted radial basis function with kernel phi(r) = r over (lon, lat).
type rbf struct {
	xs      []float64
	ys      []float64
	weights []float64
}

// fitRBF solves Phi * w = z where Phi[i][j] = |p_i - p_j|.
func fitRBF(samples []Sample) (*rbf, error) {
	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	z := mat.NewVecDense(n, nil)
	for i, s := range samples {
		xs[i] = s.Lon
		ys[i] = s.Lat
		z.SetVec(i, s.AQI)
	}

	phi := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
			phi.Set(i, j, d)
			phi.Set(j, i, d)
		}
	}

	var lu mat.LU
	lu.Factorize(phi)
	if c := lu.Cond(); math.IsInf(c, 1) || math.IsNaN(c) || c > maxCondition {
		return nil, errSingular
	}

	var w mat.VecDense
	if err := lu.SolveVecTo(&w, false, z); err != nil {
		return nil, errSingular
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = w.AtVec(i)
	}
	return &rbf{xs: xs, ys: ys, weights: weights}, nil
}

// at evaluates the fitted function at (x, y).
func (f *rbf) at(x, y float64) float64 {
	var sum float64
	for i, w := range f.weights {
		sum += w * math.Hypot(x-f.xs[i], y-f.ys[i])
	}
	return sum
}
