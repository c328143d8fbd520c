package constellation

import (
	"math"
	"math/cmplx"
	"testing"

	"pgregory.net/rapid"
)

// drawPointSet generates a dimensionality-1 point set whose arity is a power
// of two and whose points are pairwise distinct.
func drawPointSet(t *rapid.T) *PointSet {
	arity := rapid.SampledFrom([]int{2, 4, 8, 16}).Draw(t, "arity")
	points := make([]complex128, arity)
	for i := range points {
		// Distinct real parts keep the points apart without rejection loops.
		re := float64(i) + rapid.Float64Range(0.05, 0.45).Draw(t, "re")
		im := rapid.Float64Range(-3, 3).Draw(t, "im")
		points[i] = complex(re, im)
	}
	ps, err := NewPointSet(points, nil, 1, 1)
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}
	return ps
}

func TestNormalizationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ps := drawPointSet(t)

		flat, err := ps.Points()
		if err != nil {
			t.Fatalf("Points: %v", err)
		}
		var sum float64
		for _, p := range flat {
			sum += cmplx.Abs(p)
		}
		mean := sum / float64(ps.Arity())
		if math.Abs(mean-1) > 1e-9 {
			t.Errorf("mean magnitude = %g, want 1", mean)
		}
	})
}

func TestNearestPointSelfConsistencyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ps := drawPointSet(t)
		nearest := NewNearestPoint(ps)

		for i := 0; i < ps.Arity(); i++ {
			if got := nearest.Decide(ps.MapToPoint(i)); got != i {
				t.Errorf("Decide(point %d) = %d", i, got)
			}
		}
	})
}

func TestPSKSectorsAgreeWithNearestProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// PSK points at the wedge centers make the sector mapping exact, so
		// the quantized decision must agree with exhaustive search for any
		// sample off the wedge boundaries.
		n := rapid.SampledFrom([]int{2, 4, 8, 16}).Draw(t, "n")
		points := make([]complex128, n)
		for i := range points {
			phase := float64(i) * 2 * math.Pi / float64(n)
			points[i] = complex(math.Cos(phase), math.Sin(phase))
		}
		ps, err := NewPointSet(points, nil, n, 1)
		if err != nil {
			t.Fatalf("NewPointSet: %v", err)
		}
		psk, err := NewPSKSectors(ps, n)
		if err != nil {
			t.Fatalf("NewPSKSectors: %v", err)
		}
		nearest := NewNearestPoint(ps)

		mag := rapid.Float64Range(0.1, 4).Draw(t, "mag")
		phase := rapid.Float64Range(-math.Pi+1e-6, math.Pi-1e-6).Draw(t, "phase")
		sample := []complex128{cmplx.Rect(mag, phase)}

		got := psk.Decide(sample)
		want := nearest.Decide(sample)
		if got != want {
			t.Errorf("sample %v: psk=%d nearest=%d", sample[0], got, want)
		}
	})
}

func TestSoftDecisionHardensProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// At vanishing noise power, the LLR signs at an exact constellation
		// point recover that symbol's bit pattern.
		ps := drawPointSet(t)
		k := ps.BitsPerSymbol()
		symbol := rapid.IntRange(0, ps.Arity()-1).Draw(t, "symbol")

		llr := ps.SoftDecision(ps.MapToPoint(symbol)[0], 1e-3)
		for j := 0; j < k; j++ {
			bit := (symbol >> j) & 1
			got := llr[k-1-j]
			if bit == 1 && got <= 0 {
				t.Errorf("bit %d: LLR %g, want positive", j, got)
			}
			if bit == 0 && got >= 0 {
				t.Errorf("bit %d: LLR %g, want negative", j, got)
			}
		}
	})
}
