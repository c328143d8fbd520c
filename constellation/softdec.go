package constellation

import (
	"fmt"
	"math"
	"math/bits"
)

// BitsPerSymbol returns log2(arity), the number of soft-decision bits.
func (ps *PointSet) BitsPerSymbol() int {
	return bits.Len(uint(ps.arity)) - 1
}

// SoftDecision computes the per-bit log-likelihood-ratio vector for a sample
// at the given noise power.
//
// Each symbol contributes exp(-dist²/(2*npwr*scale²)) to a running "bit=0" or
// "bit=1" sum per bit position, taking bits from the pre-diff code when one is
// configured and from the symbol index itself otherwise. The output is
// MSB-first: s[k-1-j] carries bit j. Positive values favor a 1 bit.
func (ps *PointSet) SoftDecision(sample complex128, noisePower float64) []float64 {
	k := ps.BitsPerSymbol()
	scale := ps.scaleFactor * ps.scaleFactor

	sums := make([]float64, 2*k)
	for i := 0; i < ps.arity; i++ {
		diff := sample - ps.points[i]
		dist := real(diff)*real(diff) + imag(diff)*imag(diff)
		d := math.Exp(-dist / (2 * noisePower * scale))

		code := i
		if len(ps.preDiffCode) != 0 {
			code = ps.preDiffCode[i]
		}
		for j := 0; j < k; j++ {
			if (code>>j)&1 == 0 {
				sums[2*j] += d
			} else {
				sums[2*j+1] += d
			}
		}
	}

	s := make([]float64, k)
	for j := 0; j < k; j++ {
		s[k-1-j] = (math.Log(sums[2*j+1]) - math.Log(sums[2*j])) * scale
	}
	return s
}

// SoftDecisionTable is a precomputed grid of LLR vectors over the point set's
// bounding box. Immutable once built; rebuild wholesale to change parameters.
type SoftDecisionTable struct {
	values    [][]float64
	precision int
	scale     float64
	bounds    Bounds
}

// BuildSoftDecisionTable evaluates SoftDecision on a 2^precision by
// 2^precision grid spanning the bounding box, row-major with the imaginary
// axis as the major dimension. Identical parameters over the same point set
// produce identical tables.
func (ps *PointSet) BuildSoftDecisionTable(precision int, noisePower float64) *SoftDecisionTable {
	bounds := ps.BoundingBox()
	gridSize := 1 << precision
	scale := float64(gridSize)

	xStep := (bounds.ReMax - bounds.ReMin) / (scale - 1)
	yStep := (bounds.ImMax - bounds.ImMin) / (scale - 1)

	values := make([][]float64, 0, gridSize*gridSize)
	for iy := 0; iy < gridSize; iy++ {
		y := bounds.ImMin + float64(iy)*yStep
		for ix := 0; ix < gridSize; ix++ {
			x := bounds.ReMin + float64(ix)*xStep
			values = append(values, ps.SoftDecision(complex(x, y), noisePower))
		}
	}

	return &SoftDecisionTable{
		values:    values,
		precision: precision,
		scale:     scale,
		bounds:    bounds,
	}
}

// Precision returns the precision the table was built with.
func (t *SoftDecisionTable) Precision() int { return t.precision }

// Scale returns 2^precision.
func (t *SoftDecisionTable) Scale() float64 { return t.scale }

// Len returns the number of grid cells.
func (t *SoftDecisionTable) Len() int { return len(t.values) }

// Bounds returns the bounding box the table spans.
func (t *SoftDecisionTable) Bounds() Bounds { return t.bounds }

// Values returns a deep copy of the stored grid, row-major with the imaginary
// axis as the major dimension, suitable for persistence or transfer to
// another instance via SetTable.
func (t *SoftDecisionTable) Values() [][]float64 {
	out := make([][]float64, len(t.values))
	for i, v := range t.values {
		out[i] = append([]float64(nil), v...)
	}
	return out
}

// Lookup quantizes a sample into the grid and returns the stored LLR vector.
//
// The sample is clamped into the bounding box before quantization. A flat
// index past the last cell saturates to the last cell; a negative index
// returns ErrRange. The returned slice is shared with the table and must not
// be modified.
func (t *SoftDecisionTable) Lookup(sample complex128) ([]float64, error) {
	xre := real(sample)
	xim := imag(sample)

	xStep := (t.bounds.ReMax - t.bounds.ReMin) / t.scale
	yStep := (t.bounds.ImMax - t.bounds.ImMin) / t.scale

	xScale := t.scale/(t.bounds.ReMax-t.bounds.ReMin) - xStep
	yScale := t.scale/(t.bounds.ImMax-t.bounds.ImMin) - yStep

	xre = math.Floor((-t.bounds.ReMin + math.Min(t.bounds.ReMax, math.Max(t.bounds.ReMin, xre))) * xScale)
	xim = math.Floor((-t.bounds.ImMin + math.Min(t.bounds.ImMax, math.Max(t.bounds.ImMin, xim))) * yScale)
	index := int(t.scale*xim + xre)

	if index >= len(t.values) {
		return t.values[len(t.values)-1], nil
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: sample %v quantized to index %d", ErrRange, sample, index)
	}
	return t.values[index], nil
}

// SoftDecider pairs a point set with an optional lookup table. Queries fall
// back to direct computation when no table has been generated.
type SoftDecider struct {
	ps         *PointSet
	noisePower float64
	table      *SoftDecisionTable
}

// NewSoftDecider creates a soft decider computing LLRs at the given noise
// power. No table exists until Generate or SetTable is called.
func NewSoftDecider(ps *PointSet, noisePower float64) *SoftDecider {
	return &SoftDecider{ps: ps, noisePower: noisePower}
}

// PointSet returns the reference points.
func (sd *SoftDecider) PointSet() *PointSet { return sd.ps }

// NoisePower returns the configured noise power.
func (sd *SoftDecider) NoisePower() float64 { return sd.noisePower }

// Generate builds a fresh lookup table, discarding any previous one.
// Not safe against concurrent SoftDecision calls; swap in a new SoftDecider
// instead when queries are in flight.
func (sd *SoftDecider) Generate(precision int) {
	sd.table = sd.ps.BuildSoftDecisionTable(precision, sd.noisePower)
}

// SetTable installs an externally precomputed table. values must hold exactly
// 2^precision * 2^precision LLR vectors of BitsPerSymbol entries each.
func (sd *SoftDecider) SetTable(values [][]float64, precision int) error {
	gridSize := 1 << precision
	if len(values) != gridSize*gridSize {
		return fmt.Errorf("%w: table has %d cells, want %d for precision %d",
			ErrConfiguration, len(values), gridSize*gridSize, precision)
	}
	k := sd.ps.BitsPerSymbol()
	copied := make([][]float64, len(values))
	for i, v := range values {
		if len(v) != k {
			return fmt.Errorf("%w: table cell %d has %d entries, want %d",
				ErrConfiguration, i, len(v), k)
		}
		copied[i] = append([]float64(nil), v...)
	}
	sd.table = &SoftDecisionTable{
		values:    copied,
		precision: precision,
		scale:     float64(gridSize),
		bounds:    sd.ps.BoundingBox(),
	}
	return nil
}

// HasTable reports whether a lookup table has been generated or installed.
func (sd *SoftDecider) HasTable() bool { return sd.table != nil }

// Table returns the current lookup table, or nil.
func (sd *SoftDecider) Table() *SoftDecisionTable { return sd.table }

// SoftDecision returns the LLR vector for a sample, via the lookup table when
// one exists and by direct computation otherwise.
func (sd *SoftDecider) SoftDecision(sample complex128) ([]float64, error) {
	if sd.table != nil {
		return sd.table.Lookup(sample)
	}
	return sd.ps.SoftDecision(sample, sd.noisePower), nil
}
