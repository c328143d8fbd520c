package constellation

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestSoftDecision_SignsMatchPreDiffCode(t *testing.T) {
	q := NewQPSK()
	ps := q.PointSet()
	code := ps.PreDiffCode()
	k := ps.BitsPerSymbol()

	for i := 0; i < ps.Arity(); i++ {
		point := ps.MapToPoint(i)[0]
		llr := ps.SoftDecision(point, 0.01)
		if len(llr) != k {
			t.Fatalf("LLR length = %d, want %d", len(llr), k)
		}

		for j := 0; j < k; j++ {
			bit := (code[i] >> j) & 1
			got := llr[k-1-j]
			if bit == 1 && got <= 0 {
				t.Errorf("symbol %d bit %d: LLR %g, want positive", i, j, got)
			}
			if bit == 0 && got >= 0 {
				t.Errorf("symbol %d bit %d: LLR %g, want negative", i, j, got)
			}
			if math.Abs(got) < 10 {
				t.Errorf("symbol %d bit %d: |LLR| = %g, want large at low noise", i, j, math.Abs(got))
			}
		}
	}
}

func TestSoftDecision_IndexFallback(t *testing.T) {
	// No pre-diff code configured: bits come from the symbol index itself.
	ps, err := NewPointSet([]complex128{
		complex(-1, -1), complex(1, -1), complex(-1, 1), complex(1, 1),
	}, nil, 4, 1)
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}

	// Symbol 3 = 0b11: both LLRs positive. Symbol 0 = 0b00: both negative.
	for _, tt := range []struct {
		symbol   int
		positive bool
	}{
		{3, true},
		{0, false},
	} {
		llr := ps.SoftDecision(ps.MapToPoint(tt.symbol)[0], 0.05)
		for j, v := range llr {
			if tt.positive && v <= 0 {
				t.Errorf("symbol %d: llr[%d] = %g, want positive", tt.symbol, j, v)
			}
			if !tt.positive && v >= 0 {
				t.Errorf("symbol %d: llr[%d] = %g, want negative", tt.symbol, j, v)
			}
		}
	}
}

func TestBuildSoftDecisionTable_Idempotent(t *testing.T) {
	ps := NewQPSK().PointSet()

	a := ps.BuildSoftDecisionTable(5, 0.3)
	b := ps.BuildSoftDecisionTable(5, 0.3)

	if a.Len() != 32*32 {
		t.Fatalf("table has %d cells, want %d", a.Len(), 32*32)
	}
	if !reflect.DeepEqual(a.values, b.values) {
		t.Error("identical builds produced different tables")
	}
}

func TestSoftDecisionTable_LookupAgreesWithDirect(t *testing.T) {
	ps := NewQPSK().PointSet()
	npwr := 0.5
	b := ps.BoundingBox()

	meanErr := func(precision int) float64 {
		table := ps.BuildSoftDecisionTable(precision, npwr)
		var sum float64
		var n int
		for re := b.ReMin; re <= b.ReMax; re += (b.ReMax - b.ReMin) / 21 {
			for im := b.ImMin; im <= b.ImMax; im += (b.ImMax - b.ImMin) / 21 {
				sample := complex(re, im)
				got, err := table.Lookup(sample)
				if err != nil {
					t.Fatalf("Lookup(%v): %v", sample, err)
				}
				want := ps.SoftDecision(sample, npwr)
				for j := range want {
					sum += math.Abs(got[j] - want[j])
					n++
				}
			}
		}
		return sum / float64(n)
	}

	coarse := meanErr(4)
	fine := meanErr(7)
	if fine >= coarse {
		t.Errorf("discretization error did not shrink: precision 4 -> %g, precision 7 -> %g", coarse, fine)
	}
	if fine > 0.5 {
		t.Errorf("mean discretization error %g too large at precision 7", fine)
	}
}

func TestSoftDecisionTable_SaturatesAboveBox(t *testing.T) {
	ps := NewQPSK().PointSet()
	table := ps.BuildSoftDecisionTable(4, 0.5)

	// Far outside the box the sample clamps in, never errors.
	llr, err := table.Lookup(complex(1e6, 1e6))
	if err != nil {
		t.Fatalf("Lookup far above box: %v", err)
	}
	if len(llr) != ps.BitsPerSymbol() {
		t.Errorf("LLR length = %d", len(llr))
	}
}

func TestSoftDecisionTable_NegativeIndexRange(t *testing.T) {
	// A line constellation whose span exceeds the grid scale makes the
	// quantization factor negative, which drives high samples to a negative
	// flat index.
	ps, err := NewPointSet([]complex128{
		complex(-5, 0), complex(-0.01, 0), complex(0.01, 0), complex(5, 0),
	}, nil, 2, 1)
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}

	table := ps.BuildSoftDecisionTable(1, 1.0)
	b := ps.BoundingBox()
	if _, err := table.Lookup(complex(b.ReMax, b.ImMin)); !errors.Is(err, ErrRange) {
		t.Errorf("err = %v, want ErrRange", err)
	}
}

func TestSoftDecider_TableLifecycle(t *testing.T) {
	ps := NewQPSK().PointSet()
	sd := NewSoftDecider(ps, 0.25)

	if sd.HasTable() {
		t.Fatal("fresh decider should have no table")
	}

	// Without a table the decider computes directly.
	sample := complex(0.3, -0.4)
	got, err := sd.SoftDecision(sample)
	if err != nil {
		t.Fatalf("SoftDecision: %v", err)
	}
	want := ps.SoftDecision(sample, 0.25)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fallback = %v, want %v", got, want)
	}

	sd.Generate(5)
	if !sd.HasTable() {
		t.Fatal("Generate did not install a table")
	}
	if sd.Table().Precision() != 5 {
		t.Errorf("precision = %d, want 5", sd.Table().Precision())
	}

	// Lookups now come from the table.
	fromTable, err := sd.SoftDecision(sample)
	if err != nil {
		t.Fatalf("SoftDecision with table: %v", err)
	}
	fromLookup, err := sd.Table().Lookup(sample)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !reflect.DeepEqual(fromTable, fromLookup) {
		t.Error("SoftDecision and direct Lookup disagree")
	}
}

func TestSoftDecider_SetTable(t *testing.T) {
	ps := NewQPSK().PointSet()
	sd := NewSoftDecider(ps, 0.25)

	values := make([][]float64, 4) // precision 1: 2x2 grid
	for i := range values {
		values[i] = []float64{float64(i), -float64(i)}
	}
	if err := sd.SetTable(values, 1); err != nil {
		t.Fatalf("SetTable: %v", err)
	}
	if !sd.HasTable() || sd.Table().Len() != 4 {
		t.Fatal("installed table missing or wrong size")
	}

	if err := sd.SetTable(values[:3], 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("short table: err = %v, want ErrConfiguration", err)
	}
	bad := [][]float64{{1}, {1}, {1}, {1}}
	if err := sd.SetTable(bad, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("wrong cell width: err = %v, want ErrConfiguration", err)
	}
}
