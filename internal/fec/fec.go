// Package fec protects demodulated symbol streams with Reed-Solomon block
// coding, using soft-decision confidence to mark erasures.
package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Default code: RS(64,48), 16 parity bytes per block, matched to short
// simulated bursts rather than file transfer frames.
const (
	DefaultDataBytes   = 48
	DefaultParityBytes = 16
)

// BlockCoder encodes fixed-size byte blocks with Reed-Solomon parity,
// one byte per shard so that every decided symbol byte is independently
// erasable.
type BlockCoder struct {
	enc         reedsolomon.Encoder
	dataBytes   int
	parityBytes int
}

// NewBlockCoder creates a coder with the default RS(64,48) geometry.
func NewBlockCoder() (*BlockCoder, error) {
	return NewBlockCoderCustom(DefaultDataBytes, DefaultParityBytes)
}

// NewBlockCoderCustom creates a coder with explicit data/parity byte counts.
func NewBlockCoderCustom(dataBytes, parityBytes int) (*BlockCoder, error) {
	enc, err := reedsolomon.New(dataBytes, parityBytes)
	if err != nil {
		return nil, fmt.Errorf("create reed-solomon coder: %w", err)
	}
	return &BlockCoder{
		enc:         enc,
		dataBytes:   dataBytes,
		parityBytes: parityBytes,
	}, nil
}

// DataBytes returns the payload bytes per block.
func (c *BlockCoder) DataBytes() int { return c.dataBytes }

// BlockBytes returns the total encoded bytes per block.
func (c *BlockCoder) BlockBytes() int { return c.dataBytes + c.parityBytes }

// Encode appends parity to a payload of at most DataBytes bytes, zero-padding
// short payloads. The returned block is BlockBytes long.
func (c *BlockCoder) Encode(payload []byte) ([]byte, error) {
	if len(payload) > c.dataBytes {
		return nil, fmt.Errorf("payload too large: %d > %d", len(payload), c.dataBytes)
	}

	total := c.BlockBytes()
	shards := make([][]byte, total)
	for i := 0; i < c.dataBytes; i++ {
		b := byte(0)
		if i < len(payload) {
			b = payload[i]
		}
		shards[i] = []byte{b}
	}
	for i := c.dataBytes; i < total; i++ {
		shards[i] = make([]byte, 1)
	}

	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encode block: %w", err)
	}

	block := make([]byte, total)
	for i, s := range shards {
		block[i] = s[0]
	}
	return block, nil
}

// Decode recovers the payload from a received block. Byte positions listed in
// erasures are treated as missing and reconstructed from parity; up to
// parityBytes erasures can be corrected.
func (c *BlockCoder) Decode(block []byte, erasures []int) ([]byte, error) {
	total := c.BlockBytes()
	if len(block) != total {
		return nil, fmt.Errorf("invalid block size: %d != %d", len(block), total)
	}

	shards := make([][]byte, total)
	for i := 0; i < total; i++ {
		shards[i] = []byte{block[i]}
	}
	for _, idx := range erasures {
		if idx >= 0 && idx < total {
			shards[idx] = nil
		}
	}

	if err := c.enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("reconstruct block: %w", err)
	}
	ok, err := c.enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("verify block: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("block corrupted beyond repair")
	}

	payload := make([]byte, c.dataBytes)
	for i := 0; i < c.dataBytes; i++ {
		payload[i] = shards[i][0]
	}
	return payload, nil
}

// FlagErasures returns the indices of the least confident bytes, given one
// aggregate confidence value per byte (for LLR input, the minimum absolute
// LLR across the byte's bits). At most maxErasures indices are returned, and
// only bytes below threshold qualify.
func FlagErasures(confidence []float64, threshold float64, maxErasures int) []int {
	var erasures []int
	for i, conf := range confidence {
		if conf < threshold {
			erasures = append(erasures, i)
		}
	}
	if len(erasures) <= maxErasures {
		return erasures
	}

	// Too many candidates: keep the weakest maxErasures.
	for i := 1; i < len(erasures); i++ {
		for j := i; j > 0 && confidence[erasures[j]] < confidence[erasures[j-1]]; j-- {
			erasures[j], erasures[j-1] = erasures[j-1], erasures[j]
		}
	}
	weakest := append([]int(nil), erasures[:maxErasures]...)
	for i := 1; i < len(weakest); i++ {
		for j := i; j > 0 && weakest[j] < weakest[j-1]; j-- {
			weakest[j], weakest[j-1] = weakest[j-1], weakest[j]
		}
	}
	return weakest
}
