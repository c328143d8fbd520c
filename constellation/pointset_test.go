package constellation

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestNewPointSet_Errors(t *testing.T) {
	tests := []struct {
		name        string
		points      []complex128
		preDiffCode []int
		dim         int
	}{
		{"empty", nil, nil, 1},
		{"zero dimensionality", []complex128{1, -1}, nil, 0},
		{"not multiple of dimensionality", []complex128{1, -1, 1i}, nil, 2},
		{"pre-diff code too short", []complex128{1, -1, 1i, -1i}, []int{0, 1}, 1},
		{"pre-diff code too long", []complex128{1, -1}, []int{0, 1, 2}, 1},
	}

	for _, tt := range tests {
		_, err := NewPointSet(tt.points, tt.preDiffCode, 4, tt.dim)
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: got err %v, want ErrConfiguration", tt.name, err)
		}
	}
}

func TestNewPointSet_Normalization(t *testing.T) {
	// Raw 16-QAM points, mean magnitude well above 1.
	var points []complex128
	for _, re := range []float64{-3, -1, 1, 3} {
		for _, im := range []float64{-3, -1, 1, 3} {
			points = append(points, complex(re, im))
		}
	}

	ps, err := NewPointSet(points, nil, 4, 1)
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}

	flat, err := ps.Points()
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	var sum float64
	for _, p := range flat {
		sum += cmplx.Abs(p)
	}
	mean := sum / float64(ps.Arity())
	if math.Abs(mean-1) > 1e-12 {
		t.Errorf("mean magnitude after normalization = %g, want 1", mean)
	}
	if ps.Arity() != 16 {
		t.Errorf("arity = %d, want 16", ps.Arity())
	}
}

func TestMapToPoint_MultiDimensional(t *testing.T) {
	// Two symbols, two samples each.
	points := []complex128{1, 1i, -1, -1i}
	ps, err := NewPointSet(points, nil, 2, 2)
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}
	if ps.Arity() != 2 {
		t.Fatalf("arity = %d, want 2", ps.Arity())
	}

	sym1 := ps.MapToPoint(1)
	if len(sym1) != 2 {
		t.Fatalf("MapToPoint returned %d points, want 2", len(sym1))
	}
	// Magnitudes are all 1, so normalization leaves the points alone.
	if sym1[0] != -1 || sym1[1] != -1i {
		t.Errorf("MapToPoint(1) = %v, want [-1, -1i]", sym1)
	}

	if d := ps.SquaredDistance(0, ps.MapToPoint(0)); d != 0 {
		t.Errorf("SquaredDistance at own symbol = %g, want 0", d)
	}
	want := 8.0 // |1-(-1)|^2 + |i-(-i)|^2
	if d := ps.SquaredDistance(1, ps.MapToPoint(0)); math.Abs(d-want) > 1e-12 {
		t.Errorf("cross SquaredDistance = %g, want %g", d, want)
	}

	if _, err := ps.Points(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Points on 2-dimensional set: err = %v, want ErrConfiguration", err)
	}

	rows := ps.PointsBySymbol()
	if len(rows) != 2 || len(rows[0]) != 2 {
		t.Errorf("PointsBySymbol shape = %dx%d, want 2x2", len(rows), len(rows[0]))
	}
}

func TestBoundingBox_ZeroSubstitution(t *testing.T) {
	// BPSK sits entirely on the real axis; the imaginary bounds are exactly
	// zero and inherit the real bounds.
	ps := NewBPSK().PointSet()
	b := ps.BoundingBox()

	if b.ReMin != -1 || b.ReMax != 1 {
		t.Errorf("real bounds = [%g, %g], want [-1, 1]", b.ReMin, b.ReMax)
	}
	if b.ImMin != -1 || b.ImMax != 1 {
		t.Errorf("imag bounds = [%g, %g], want inherited [-1, 1]", b.ImMin, b.ImMax)
	}
}

func TestBoundingBox_FullPlane(t *testing.T) {
	ps := NewQPSK().PointSet()
	b := ps.BoundingBox()
	s := 1 / math.Sqrt2

	for name, got := range map[string]float64{
		"ReMin": b.ReMin + s,
		"ReMax": b.ReMax - s,
		"ImMin": b.ImMin + s,
		"ImMax": b.ImMax - s,
	} {
		if math.Abs(got) > 1e-6 {
			t.Errorf("%s off by %g", name, got)
		}
	}
}

func TestMetrics(t *testing.T) {
	ps := NewQPSK().PointSet()
	sample := []complex128{ps.MapToPoint(2)[0]}

	euclid, err := ps.Metrics(sample, MetricEuclidean)
	if err != nil {
		t.Fatalf("euclidean metrics: %v", err)
	}
	if len(euclid) != 4 || euclid[2] > 1e-12 {
		t.Errorf("euclidean metrics = %v, want zero at index 2", euclid)
	}

	hard, err := ps.Metrics(sample, MetricHardSymbol)
	if err != nil {
		t.Fatalf("hard symbol metrics: %v", err)
	}
	for i, m := range hard {
		want := 1.0
		if i == 2 {
			want = 0
		}
		if m != want {
			t.Errorf("hard metric[%d] = %g, want %g", i, m, want)
		}
	}

	if _, err := ps.Metrics(sample, MetricHardBit); !errors.Is(err, ErrConfiguration) {
		t.Errorf("hard bit metrics: err = %v, want ErrConfiguration", err)
	}
	if _, err := ps.Metrics(sample, MetricType(99)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown metric type: err = %v, want ErrConfiguration", err)
	}
}
