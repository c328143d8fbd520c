package constellation

import (
	"fmt"
	"math/cmplx"
)

// MetricType selects how Metrics scores a sample against every symbol.
type MetricType int

const (
	// MetricEuclidean reports the squared Euclidean distance to each symbol.
	MetricEuclidean MetricType = iota
	// MetricHardSymbol reports 0 for the nearest symbol and 1 for all others.
	MetricHardSymbol
	// MetricHardBit is reserved and not implemented.
	MetricHardBit
)

// PointSet is an immutable ordered set of complex symbol points.
//
// Points are stored pre-scaled so that the mean magnitude of the set is 1,
// which keeps noise-power-relative soft-decision math comparable across
// constellations. A PointSet is safe for concurrent use.
type PointSet struct {
	points         []complex128
	preDiffCode    []int
	rotSymmetry    int
	dimensionality int
	arity          int
	scaleFactor    float64
}

// NewPointSet creates a point set from raw constellation points.
//
// len(points) must be an exact multiple of dimensionality; preDiffCode must be
// empty or have exactly arity entries. Every stored point is multiplied by
// arity/Σ|p| so the mean magnitude of the set is 1.
func NewPointSet(points []complex128, preDiffCode []int, rotationalSymmetry, dimensionality int) (*PointSet, error) {
	if dimensionality < 1 {
		return nil, fmt.Errorf("%w: dimensionality %d < 1", ErrConfiguration, dimensionality)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty point set", ErrConfiguration)
	}
	if len(points)%dimensionality != 0 {
		return nil, fmt.Errorf("%w: %d points is not a multiple of dimensionality %d",
			ErrConfiguration, len(points), dimensionality)
	}
	arity := len(points) / dimensionality
	if len(preDiffCode) != 0 && len(preDiffCode) != arity {
		return nil, fmt.Errorf("%w: pre-diff code length %d does not match arity %d",
			ErrConfiguration, len(preDiffCode), arity)
	}

	var summedMag float64
	for _, p := range points {
		summedMag += cmplx.Abs(p)
	}
	scale := float64(arity) / summedMag

	scaled := make([]complex128, len(points))
	for i, p := range points {
		scaled[i] = p * complex(scale, 0)
	}

	return &PointSet{
		points:         scaled,
		preDiffCode:    append([]int(nil), preDiffCode...),
		rotSymmetry:    rotationalSymmetry,
		dimensionality: dimensionality,
		arity:          arity,
		scaleFactor:    scale,
	}, nil
}

// Arity returns the number of distinct symbols.
func (ps *PointSet) Arity() int { return ps.arity }

// Dimensionality returns the number of complex samples decided per symbol.
func (ps *PointSet) Dimensionality() int { return ps.dimensionality }

// RotationalSymmetry returns how many discrete rotations map the set onto itself.
func (ps *PointSet) RotationalSymmetry() int { return ps.rotSymmetry }

// ScaleFactor returns the normalization factor applied to the stored points.
func (ps *PointSet) ScaleFactor() float64 { return ps.scaleFactor }

// PreDiffCode returns a copy of the pre-differential bit mapping, or nil.
func (ps *PointSet) PreDiffCode() []int {
	if len(ps.preDiffCode) == 0 {
		return nil
	}
	return append([]int(nil), ps.preDiffCode...)
}

// MapToPoint returns the D-tuple of points representing a symbol.
// symbol must be in [0, Arity).
func (ps *PointSet) MapToPoint(symbol int) []complex128 {
	out := make([]complex128, ps.dimensionality)
	copy(out, ps.points[symbol*ps.dimensionality:(symbol+1)*ps.dimensionality])
	return out
}

// SquaredDistance returns the summed squared magnitude difference between
// sample and the stored points of a symbol, over all dimensions.
func (ps *PointSet) SquaredDistance(symbol int, sample []complex128) float64 {
	var dist float64
	for d := 0; d < ps.dimensionality; d++ {
		diff := sample[d] - ps.points[symbol*ps.dimensionality+d]
		dist += real(diff)*real(diff) + imag(diff)*imag(diff)
	}
	return dist
}

// ClosestPoint returns the symbol with minimum squared distance to sample.
// The first index wins ties.
func (ps *PointSet) ClosestPoint(sample []complex128) int {
	minIndex := 0
	minDist := ps.SquaredDistance(0, sample)
	for i := 1; i < ps.arity; i++ {
		if d := ps.SquaredDistance(i, sample); d < minDist {
			minDist = d
			minIndex = i
		}
	}
	return minIndex
}

// Points returns a copy of the flat point sequence.
// Only valid for dimensionality-1 constellations.
func (ps *PointSet) Points() ([]complex128, error) {
	if ps.dimensionality != 1 {
		return nil, fmt.Errorf("%w: flat points only exist for dimensionality 1, have %d",
			ErrConfiguration, ps.dimensionality)
	}
	return append([]complex128(nil), ps.points...), nil
}

// PointsBySymbol returns the points grouped per symbol, arity rows of D points.
func (ps *PointSet) PointsBySymbol() [][]complex128 {
	out := make([][]complex128, ps.arity)
	for i := range out {
		out[i] = ps.MapToPoint(i)
	}
	return out
}

// Metrics scores sample against every symbol according to typ.
func (ps *PointSet) Metrics(sample []complex128, typ MetricType) ([]float64, error) {
	metric := make([]float64, ps.arity)
	switch typ {
	case MetricEuclidean:
		for i := range metric {
			metric[i] = ps.SquaredDistance(i, sample)
		}
	case MetricHardSymbol:
		nearest := ps.ClosestPoint(sample)
		for i := range metric {
			if i != nearest {
				metric[i] = 1
			}
		}
	case MetricHardBit:
		return nil, fmt.Errorf("%w: hard-bit metric not implemented", ErrConfiguration)
	default:
		return nil, fmt.Errorf("%w: unknown metric type %d", ErrConfiguration, typ)
	}
	return metric, nil
}

// Bounds is the bounding box of a point set on the complex plane.
type Bounds struct {
	ReMin, ReMax float64
	ImMin, ImMax float64
}

// BoundingBox returns the extreme real/imaginary coordinates of the stored
// points. An axis bound that is exactly zero inherits the other axis's
// corresponding bound, so one-dimensional constellations (all points on an
// axis) still span a usable two-dimensional box.
func (ps *PointSet) BoundingBox() Bounds {
	b := Bounds{ReMin: 1e20, ReMax: -1e20, ImMin: 1e20, ImMax: -1e20}
	for _, p := range ps.points {
		if real(p) > b.ReMax {
			b.ReMax = real(p)
		}
		if real(p) < b.ReMin {
			b.ReMin = real(p)
		}
		if imag(p) > b.ImMax {
			b.ImMax = imag(p)
		}
		if imag(p) < b.ImMin {
			b.ImMin = imag(p)
		}
	}
	if b.ImMin == 0 {
		b.ImMin = b.ReMin
	}
	if b.ImMax == 0 {
		b.ImMax = b.ReMax
	}
	if b.ReMin == 0 {
		b.ReMin = b.ImMin
	}
	if b.ReMax == 0 {
		b.ReMax = b.ImMax
	}
	return b
}
