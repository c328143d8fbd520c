package fec

import (
	"encoding/binary"
	"hash/crc32"
)

// Payload integrity check for simulated transfers: a CRC-32 (IEEE) trailer
// appended before coding and verified after decoding.

// Seal appends a 4-byte CRC-32 trailer to the payload.
func Seal(payload []byte) []byte {
	out := make([]byte, len(payload)+4)
	copy(out, payload)
	binary.BigEndian.PutUint32(out[len(payload):], crc32.ChecksumIEEE(payload))
	return out
}

// Unseal strips and checks the CRC-32 trailer, returning the payload and
// whether the checksum matched.
func Unseal(sealed []byte) ([]byte, bool) {
	if len(sealed) < 4 {
		return nil, false
	}
	payload := sealed[:len(sealed)-4]
	want := binary.BigEndian.Uint32(sealed[len(sealed)-4:])
	return payload, crc32.ChecksumIEEE(payload) == want
}
