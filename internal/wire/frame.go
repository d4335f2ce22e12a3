// Package wire implements the in-air frame layout shared by both ends of
// the link: a fixed 64-bit preamble, a 32-bit big-endian payload length, a
// 32-bit CRC of the unencoded payload, then the FEC-encoded payload bits.
// Every bit here is part of the interoperability contract.
package wire

import (
	"math"

	"github.com/plutolink/plutolink/fec"
)

// preamblePattern is the 16-bit base sequence; the on-air preamble repeats
// it four times.
var preamblePattern = []byte{1, 0, 1, 1, 0, 1, 0, 0, 1, 1, 1, 0, 0, 1, 0, 1}

const (
	// PreambleLen is the preamble length in bits.
	PreambleLen = 64

	lengthBits = 32
	crcBits    = 32

	// MaxPayloadLen bounds the length field accepted on decode. Anything
	// above it is treated as a sync artifact, not a frame.
	MaxPayloadLen = 50_000_000
)

// Preamble returns a fresh copy of the 64-bit preamble.
func Preamble() []byte {
	p := make([]byte, 0, PreambleLen)
	for i := 0; i < 4; i++ {
		p = append(p, preamblePattern...)
	}
	return p
}

// EncodeFrame builds the complete frame bit sequence carrying payload at
// the given code rate.
func EncodeFrame(payload []byte, rate fec.Rate) []byte {
	enc := rate.Encode(fec.BytesToBits(payload))
	frame := make([]byte, 0, PreambleLen+lengthBits+crcBits+len(enc))
	frame = append(frame, Preamble()...)
	frame = append(frame, fec.U32ToBits(uint32(len(payload)))...)
	frame = append(frame, fec.U32ToBits(fec.Checksum(payload))...)
	frame = append(frame, enc...)
	return frame
}

// DecodeFrame makes one decode attempt on bits, where start indexes the
// first bit after the preamble. It returns the payload bytes, or nil when
// any validation step fails: an implausible length field, a window too
// short for the encoded region, a short FEC decode, or a CRC mismatch.
// Misses are routine while scanning a live stream and are not errors.
func DecodeFrame(bits []byte, start int, rate fec.Rate) []byte {
	if start < 0 || start+lengthBits+crcBits > len(bits) {
		return nil
	}
	length := fec.BitsToU32(bits[start : start+lengthBits])
	if length == 0 || length > MaxPayloadLen {
		return nil
	}
	crc := fec.BitsToU32(bits[start+lengthBits : start+lengthBits+crcBits])

	payloadBits := int(length) * 8
	encLen := int(math.Ceil(float64(payloadBits) * rate.Expansion()))
	off := start + lengthBits + crcBits
	if off+encLen > len(bits) {
		return nil
	}
	decoded := rate.Decode(bits[off : off+encLen])
	if len(decoded) < payloadBits {
		return nil
	}
	payload := fec.BitsToBytes(decoded[:payloadBits])
	if len(payload) != int(length) || fec.Checksum(payload) != crc {
		return nil
	}
	return payload
}
