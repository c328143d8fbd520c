package constellation

import "math"

// Closed-form deciders for fixed low-order constellations. Decisions are
// direct sign/quadrant tests on the sample, O(1), no table.

// sqrtTwo is the half-diagonal coordinate of the unit-magnitude QPSK points.
const sqrtTwo = 0.707107

func mustPointSet(points []complex128, preDiffCode []int, rotationalSymmetry, dimensionality int) *PointSet {
	ps, err := NewPointSet(points, preDiffCode, rotationalSymmetry, dimensionality)
	if err != nil {
		panic(err)
	}
	return ps
}

// BPSK is the two-point constellation {-1, +1} on the real axis.
type BPSK struct {
	ps *PointSet
}

// NewBPSK creates a BPSK decider.
func NewBPSK() *BPSK {
	return &BPSK{ps: mustPointSet(
		[]complex128{complex(-1, 0), complex(1, 0)},
		nil, 2, 1,
	)}
}

// Decide returns 1 for positive real samples, 0 otherwise.
func (b *BPSK) Decide(sample []complex128) int {
	if real(sample[0]) > 0 {
		return 1
	}
	return 0
}

// PointSet returns the reference points.
func (b *BPSK) PointSet() *PointSet { return b.ps }

// QPSK is the Gray-coded four-point constellation with points at (±s, ±s).
type QPSK struct {
	ps *PointSet
}

// NewQPSK creates a Gray-coded QPSK decider.
func NewQPSK() *QPSK {
	return &QPSK{ps: mustPointSet(
		[]complex128{
			complex(-sqrtTwo, -sqrtTwo),
			complex(sqrtTwo, -sqrtTwo),
			complex(-sqrtTwo, sqrtTwo),
			complex(sqrtTwo, sqrtTwo),
		},
		[]int{0x0, 0x2, 0x3, 0x1},
		4, 1,
	)}
}

// Decide slices each axis independently: the real component determines the
// low bit, the imaginary component the high bit.
func (q *QPSK) Decide(sample []complex128) int {
	index := 0
	if imag(sample[0]) > 0 {
		index += 2
	}
	if real(sample[0]) > 0 {
		index++
	}
	return index
}

// PointSet returns the reference points.
func (q *QPSK) PointSet() *PointSet { return q.ps }

// DQPSK is a four-point constellation ordered for differential encoding.
// The symbol order is deliberately not Gray-coded; the pre-diff code maps
// indices to Gray before differential encoding downstream.
type DQPSK struct {
	ps *PointSet
}

// NewDQPSK creates a DQPSK decider.
func NewDQPSK() *DQPSK {
	return &DQPSK{ps: mustPointSet(
		[]complex128{
			complex(sqrtTwo, sqrtTwo),
			complex(-sqrtTwo, sqrtTwo),
			complex(-sqrtTwo, -sqrtTwo),
			complex(sqrtTwo, -sqrtTwo),
		},
		[]int{0x0, 0x1, 0x3, 0x2},
		4, 1,
	)}
}

// Decide assigns one index per quadrant. The layout cannot be sliced along
// one axis, so each quadrant is tested explicitly.
func (d *DQPSK) Decide(sample []complex128) int {
	rePos := real(sample[0]) > 0
	imPos := imag(sample[0]) > 0
	switch {
	case rePos && imPos:
		return 0x0
	case !rePos && imPos:
		return 0x1
	case !rePos && !imPos:
		return 0x2
	default:
		return 0x3
	}
}

// PointSet returns the reference points.
func (d *DQPSK) PointSet() *PointSet { return d.ps }

// EightPSK is the Gray-coded eight-point constellation on the unit circle,
// points at odd multiples of pi/8.
type EightPSK struct {
	ps *PointSet
}

// NewEightPSK creates an 8-PSK decider.
func NewEightPSK() *EightPSK {
	angle := math.Pi / 8.0
	at := func(n int) complex128 {
		return complex(math.Cos(float64(n)*angle), math.Sin(float64(n)*angle))
	}
	return &EightPSK{ps: mustPointSet(
		[]complex128{at(1), at(7), at(15), at(9), at(3), at(5), at(13), at(11)},
		nil, 8, 1,
	)}
}

// Decide builds the index from three sign/magnitude comparisons. The bit
// assignment matches the point layout in NewEightPSK and must not change.
func (e *EightPSK) Decide(sample []complex128) int {
	re := real(sample[0])
	im := imag(sample[0])

	index := 0
	if math.Abs(re) <= math.Abs(im) {
		index = 4
	}
	if re <= 0 {
		index |= 1
	}
	if im <= 0 {
		index |= 2
	}
	return index
}

// PointSet returns the reference points.
func (e *EightPSK) PointSet() *PointSet { return e.ps }
