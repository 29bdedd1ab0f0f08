// Package wire implements the on-wire representations crossing the serial
// and RPC boundaries (spec §6): radio frame packing between []byte and
// []uint32, and the tagged Config/Transmit/Receive packet codec. Built the
// way other_examples' NPI protocol packs fields manually over a
// bytes.Buffer, rather than through a generated marshaller.
package wire

import "encoding/binary"

// PackFrame reinterprets b as a little-endian []uint32, the wire
// representation spec §6 names. A trailing partial word is zero-padded
// (design note d: avoid leaking stack bytes from an unpadded tail).
func PackFrame(b []byte) []uint32 {
	n := (len(b) + 3) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		var word [4]byte
		copy(word[:], b[i*4:])
		out[i] = binary.LittleEndian.Uint32(word[:])
	}
	return out
}

// UnpackFrame reverses PackFrame, truncating the reassembled bytes to
// length (spec §6: "truncated to length").
func UnpackFrame(words []uint32, length int) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	if length < 0 {
		length = 0
	}
	if length > len(out) {
		length = len(out)
	}
	return out[:length]
}
