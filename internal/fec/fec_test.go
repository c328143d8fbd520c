package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockCoder_RoundTrip(t *testing.T) {
	c, err := NewBlockCoder()
	require.NoError(t, err)

	payload := make([]byte, c.DataBytes())
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	block, err := c.Encode(payload)
	require.NoError(t, err)
	assert.Len(t, block, c.BlockBytes())

	decoded, err := c.Decode(block, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestBlockCoder_ShortPayloadPadding(t *testing.T) {
	c, err := NewBlockCoderCustom(10, 4)
	require.NoError(t, err)

	block, err := c.Encode([]byte("hi"))
	require.NoError(t, err)

	decoded, err := c.Decode(block, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), decoded[:2])
	for _, b := range decoded[2:] {
		assert.Zero(t, b)
	}
}

func TestBlockCoder_ErasureCorrection(t *testing.T) {
	c, err := NewBlockCoderCustom(10, 4)
	require.NoError(t, err)

	payload := []byte("0123456789")
	block, err := c.Encode(payload)
	require.NoError(t, err)

	corrupted := append([]byte(nil), block...)
	erasures := []int{1, 4, 11, 13}
	for _, idx := range erasures {
		corrupted[idx] ^= 0xA5
	}

	decoded, err := c.Decode(corrupted, erasures)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestBlockCoder_TooManyErrors(t *testing.T) {
	c, err := NewBlockCoderCustom(10, 4)
	require.NoError(t, err)

	block, err := c.Encode([]byte("0123456789"))
	require.NoError(t, err)

	// Unmarked corruption is invisible to reconstruction and must fail
	// verification.
	corrupted := append([]byte(nil), block...)
	corrupted[0] ^= 0xFF
	corrupted[5] ^= 0xFF
	corrupted[9] ^= 0xFF

	_, err = c.Decode(corrupted, nil)
	assert.Error(t, err)
}

func TestBlockCoder_Sizes(t *testing.T) {
	c, err := NewBlockCoderCustom(10, 4)
	require.NoError(t, err)

	_, err = c.Encode(make([]byte, 11))
	assert.Error(t, err, "oversized payload")

	_, err = c.Decode(make([]byte, 13), nil)
	assert.Error(t, err, "undersized block")
}

func TestFlagErasures(t *testing.T) {
	conf := []float64{5, 0.1, 8, 0.3, 0.2, 9}

	assert.Equal(t, []int{1, 3, 4}, FlagErasures(conf, 1.0, 8))
	// Capped: keeps the weakest, reported in index order.
	assert.Equal(t, []int{1, 4}, FlagErasures(conf, 1.0, 2))
	assert.Empty(t, FlagErasures(conf, 0.05, 8))
}

func TestSealUnseal(t *testing.T) {
	payload := []byte("soft decisions feed the decoder")

	sealed := Seal(payload)
	require.Len(t, sealed, len(payload)+4)

	got, ok := Unseal(sealed)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	sealed[3] ^= 0x80
	_, ok = Unseal(sealed)
	assert.False(t, ok)

	_, ok = Unseal([]byte{1, 2})
	assert.False(t, ok)
}
