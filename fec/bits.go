package fec

// Bit sequences travel through the codec layers as []byte with one bit per
// element (values 0 or 1). Packing is MSB-first everywhere; the frame layout
// depends on it.

// BytesToBits expands data into its bits, most significant bit first.
func BytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// BitsToBytes packs bits back into bytes, MSB-first. A trailing remainder
// shorter than 8 bits is dropped; callers truncate to an exact bit count
// before packing.
func BitsToBytes(bits []byte) []byte {
	n := len(bits) - len(bits)%8
	out := make([]byte, 0, n/8)
	for i := 0; i < n; i += 8 {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | bits[i+j]&1
		}
		out = append(out, b)
	}
	return out
}

// U32ToBits returns the 32 bits of x, most significant first.
func U32ToBits(x uint32) []byte {
	bits := make([]byte, 32)
	for i := 0; i < 32; i++ {
		bits[i] = byte(x >> uint(31-i) & 1)
	}
	return bits
}

// BitsToU32 reads a big-endian 32-bit value from the first 32 entries of
// bits. Shorter input yields the value of the bits present.
func BitsToU32(bits []byte) uint32 {
	if len(bits) > 32 {
		bits = bits[:32]
	}
	var x uint32
	for _, b := range bits {
		x = x<<1 | uint32(b&1)
	}
	return x
}
