package constellation

import (
	"fmt"
	"math/cmplx"
	"sort"
)

// Decider maps a received sample vector to the hard-decided symbol index.
//
// Every variant is a pure function of its immutable construction state, so a
// Decider may be shared between goroutines.
type Decider interface {
	// Decide returns the symbol index for a D-dimensional sample vector.
	Decide(sample []complex128) int
	// PointSet returns the underlying reference points.
	PointSet() *PointSet
}

// DecideWithPhaseError decides a sample and additionally reports the phase
// error against the decided reference points, for carrier tracking loops:
// the negative sum over dimensions of arg(sample_d * conj(ref_d)).
func DecideWithPhaseError(d Decider, sample []complex128) (int, float64) {
	index := d.Decide(sample)
	ref := d.PointSet().MapToPoint(index)
	var phaseError float64
	for i := range ref {
		phaseError += -cmplx.Phase(sample[i] * cmplx.Conj(ref[i]))
	}
	return index, phaseError
}

// NearestPoint decides by exhaustive distance search over all symbols.
// O(arity) per decision, correct for any geometry.
type NearestPoint struct {
	ps *PointSet
}

// NewNearestPoint creates a brute-force nearest-point decider.
func NewNearestPoint(ps *PointSet) *NearestPoint {
	return &NearestPoint{ps: ps}
}

// Decide returns the index of the closest symbol.
func (n *NearestPoint) Decide(sample []complex128) int {
	return n.ps.ClosestPoint(sample)
}

// PointSet returns the reference points.
func (n *NearestPoint) PointSet() *PointSet { return n.ps }

// DeciderFactory constructs a named decider variant.
type DeciderFactory func() (Decider, error)

var deciderRegistry = map[string]DeciderFactory{
	"bpsk":  func() (Decider, error) { return NewBPSK(), nil },
	"qpsk":  func() (Decider, error) { return NewQPSK(), nil },
	"dqpsk": func() (Decider, error) { return NewDQPSK(), nil },
	"8psk":  func() (Decider, error) { return NewEightPSK(), nil },
}

// RegisterDecider adds a named decider variant. Not safe for concurrent use;
// register during initialization.
func RegisterDecider(name string, factory DeciderFactory) {
	deciderRegistry[name] = factory
}

// NewDeciderByName constructs a registered decider variant.
func NewDeciderByName(name string) (Decider, error) {
	factory, ok := deciderRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown decider %q", ErrConfiguration, name)
	}
	return factory()
}

// RegisteredDeciders returns the sorted names of all registered variants.
func RegisteredDeciders() []string {
	names := make([]string, 0, len(deciderRegistry))
	for name := range deciderRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
