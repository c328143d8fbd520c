// Package sim runs additive-white-Gaussian-noise link simulations over a
// constellation: random symbols through a noisy channel into hard and soft
// decisions, optionally protected by Reed-Solomon block coding.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jeongseonghan/constel/constellation"
	"github.com/jeongseonghan/constel/internal/fec"
)

// Params configures an uncoded symbol-error run.
type Params struct {
	Decider    constellation.Decider
	Soft       *constellation.SoftDecider // optional; enables soft-bit counting
	NoisePower float64
	Symbols    int
	Seed       int64
	Progress   func(done, total int) // optional
}

// Result aggregates error counts from a run.
type Result struct {
	Symbols       int
	SymbolErrors  int
	Bits          int
	BitErrors     int
	SoftBitErrors int
}

// SER returns the symbol error rate.
func (r *Result) SER() float64 { return float64(r.SymbolErrors) / float64(r.Symbols) }

// BER returns the hard-decision bit error rate.
func (r *Result) BER() float64 { return float64(r.BitErrors) / float64(r.Bits) }

// SoftBER returns the bit error rate of sign-sliced soft decisions.
func (r *Result) SoftBER() float64 { return float64(r.SoftBitErrors) / float64(r.Bits) }

// Run transmits random symbols through an AWGN channel and counts hard (and,
// when a soft decider is supplied, soft) decision errors.
func Run(p Params) (*Result, error) {
	if p.Decider == nil {
		return nil, fmt.Errorf("sim: decider required")
	}
	if p.Symbols <= 0 {
		return nil, fmt.Errorf("sim: symbol count %d must be positive", p.Symbols)
	}
	if p.NoisePower <= 0 {
		return nil, fmt.Errorf("sim: noise power %g must be positive", p.NoisePower)
	}

	ps := p.Decider.PointSet()
	if p.Soft != nil && ps.Dimensionality() != 1 {
		return nil, fmt.Errorf("sim: soft decisions require dimensionality 1")
	}

	rng := rand.New(rand.NewSource(p.Seed))
	sigma := math.Sqrt(p.NoisePower / 2)
	k := ps.BitsPerSymbol()
	code := symbolCodes(ps)

	res := &Result{Symbols: p.Symbols, Bits: p.Symbols * k}
	rx := make([]complex128, ps.Dimensionality())
	for n := 0; n < p.Symbols; n++ {
		tx := rng.Intn(ps.Arity())
		points := ps.MapToPoint(tx)
		for d, pt := range points {
			rx[d] = pt + complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)
		}

		got := p.Decider.Decide(rx)
		if got != tx {
			res.SymbolErrors++
		}
		res.BitErrors += popcount(code[got] ^ code[tx])

		if p.Soft != nil {
			llr, err := p.Soft.SoftDecision(rx[0])
			if err != nil {
				return nil, fmt.Errorf("sim: soft decision: %w", err)
			}
			for j := 0; j < k; j++ {
				want := (code[tx] >> j) & 1
				soft := 0
				if llr[k-1-j] > 0 {
					soft = 1
				}
				if soft != want {
					res.SoftBitErrors++
				}
			}
		}

		if p.Progress != nil && (n+1)%1024 == 0 {
			p.Progress(n+1, p.Symbols)
		}
	}
	if p.Progress != nil {
		p.Progress(p.Symbols, p.Symbols)
	}
	return res, nil
}

// symbolCodes returns the bit pattern transmitted for each symbol index: the
// pre-diff code when configured, the index itself otherwise.
func symbolCodes(ps *constellation.PointSet) []int {
	if code := ps.PreDiffCode(); code != nil {
		return code
	}
	code := make([]int, ps.Arity())
	for i := range code {
		code[i] = i
	}
	return code
}

func popcount(v int) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

// CodedParams configures a coded-payload run.
type CodedParams struct {
	Decider          constellation.Decider
	Soft             *constellation.SoftDecider
	Coder            *fec.BlockCoder
	NoisePower       float64
	Payload          []byte
	Seed             int64
	ErasureThreshold float64
}

// CodedResult reports the outcome of a coded transfer.
type CodedResult struct {
	ChannelByteErrors int
	Erasures          int
	Recovered         bool
	Payload           []byte
}

// RunCoded sends a CRC-sealed, Reed-Solomon-coded payload across the channel.
// Hard decisions carry the byte values; soft-decision confidence flags the
// weakest bytes as erasures for the decoder.
func RunCoded(p CodedParams) (*CodedResult, error) {
	if p.Decider == nil || p.Soft == nil || p.Coder == nil {
		return nil, fmt.Errorf("sim: decider, soft decider and coder required")
	}
	ps := p.Decider.PointSet()
	if ps.Dimensionality() != 1 {
		return nil, fmt.Errorf("sim: coded runs require dimensionality 1")
	}
	if len(p.Payload)+4 > p.Coder.DataBytes() {
		return nil, fmt.Errorf("sim: payload %d bytes exceeds block capacity %d",
			len(p.Payload), p.Coder.DataBytes()-4)
	}
	if p.NoisePower <= 0 {
		return nil, fmt.Errorf("sim: noise power %g must be positive", p.NoisePower)
	}

	block, err := p.Coder.Encode(fec.Seal(p.Payload))
	if err != nil {
		return nil, err
	}

	invCode, err := inverseCode(ps)
	if err != nil {
		return nil, err
	}
	k := ps.BitsPerSymbol()
	code := symbolCodes(ps)

	// Pack the block into k-bit symbol groups, MSB first.
	txBits := bytesToBits(block)
	for len(txBits)%k != 0 {
		txBits = append(txBits, 0)
	}
	nSymbols := len(txBits) / k

	rng := rand.New(rand.NewSource(p.Seed))
	sigma := math.Sqrt(p.NoisePower / 2)

	rxBits := make([]byte, len(txBits))
	llrByBit := make([]float64, len(txBits))
	for s := 0; s < nSymbols; s++ {
		group := txBits[s*k : (s+1)*k]
		v := 0
		for _, b := range group {
			v = v<<1 | int(b)
		}
		tx := invCode[v]

		point := ps.MapToPoint(tx)[0]
		sample := point + complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)

		got := p.Decider.Decide([]complex128{sample})
		llr, err := p.Soft.SoftDecision(sample)
		if err != nil {
			return nil, fmt.Errorf("sim: soft decision: %w", err)
		}

		for r := 0; r < k; r++ {
			rxBits[s*k+r] = byte((code[got] >> (k - 1 - r)) & 1)
			llrByBit[s*k+r] = math.Abs(llr[r])
		}
	}

	rxBlock := bitsToBytes(rxBits[:len(block)*8])
	confidence := make([]float64, len(block))
	for i := range confidence {
		low := math.Inf(1)
		for b := i * 8; b < (i+1)*8; b++ {
			if llrByBit[b] < low {
				low = llrByBit[b]
			}
		}
		confidence[i] = low
	}

	res := &CodedResult{}
	for i := range block {
		if rxBlock[i] != block[i] {
			res.ChannelByteErrors++
		}
	}

	erasures := fec.FlagErasures(confidence, p.ErasureThreshold, p.Coder.BlockBytes()-p.Coder.DataBytes())
	res.Erasures = len(erasures)

	decoded, err := p.Coder.Decode(rxBlock, erasures)
	if err != nil {
		return res, nil
	}
	sealed := decoded[:len(p.Payload)+4]
	payload, ok := fec.Unseal(sealed)
	if !ok {
		return res, nil
	}
	res.Recovered = true
	res.Payload = append([]byte(nil), payload...)
	return res, nil
}

// inverseCode maps a transmitted bit pattern back to its symbol index.
func inverseCode(ps *constellation.PointSet) ([]int, error) {
	code := symbolCodes(ps)
	inv := make([]int, ps.Arity())
	seen := make([]bool, ps.Arity())
	for i, v := range code {
		if v < 0 || v >= ps.Arity() || seen[v] {
			return nil, fmt.Errorf("sim: pre-diff code is not a permutation of symbol indices")
		}
		inv[v] = i
		seen[v] = true
	}
	return inv, nil
}

func bytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for j := 7; j >= 0; j-- {
			bits = append(bits, (b>>uint(j))&1)
		}
	}
	return bits
}

func bitsToBytes(bits []byte) []byte {
	data := make([]byte, len(bits)/8)
	for i := range data {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | bits[i*8+j]&1
		}
		data[i] = b
	}
	return data
}
