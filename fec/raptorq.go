package fec

import (
	"errors"

	rqq "github.com/xssnick/raptorq"
)

// Symbol is one erasure-coded unit with its position in the block. The
// evaluation tool uses RaptorQ as a reference point against the link's
// repetition/parity rates; nothing on the air path depends on it.
type Symbol struct {
	Index int
	Data  []byte
}

// RaptorQEncodeBlock generates n symbols (ids 0..n-1) for a block of up to
// k*l payload bytes. Ids below k are the systematic source symbols; the
// rest are repair. Data longer than k*l is truncated, shorter data is
// padded internally by the library.
func RaptorQEncodeBlock(data []byte, n, k, l int) ([]Symbol, error) {
	if n <= 0 || k <= 0 || l <= 0 || k > n {
		return nil, errors.New("bad n/k/l")
	}
	if max := k * l; len(data) > max {
		data = data[:max]
	}
	enc, err := rqq.NewRaptorQ(uint32(l)).CreateEncoder(data)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, n)
	for i := 0; i < n; i++ {
		out[i] = Symbol{Index: i, Data: enc.GenSymbol(uint32(i))}
	}
	return out, nil
}

// RaptorQDecodeBytes reconstructs the original dataSize bytes from whatever
// symbols survived. ok is false when too few usable symbols arrived.
func RaptorQDecodeBytes(recv []Symbol, n, l, dataSize int) ([]byte, bool) {
	if n <= 0 || l <= 0 || dataSize < 0 {
		return nil, false
	}
	dec, err := rqq.NewRaptorQ(uint32(l)).CreateDecoder(uint32(dataSize))
	if err != nil {
		return nil, false
	}
	for _, s := range recv {
		if s.Index < 0 || s.Index >= n {
			continue
		}
		// A rejected symbol is not fatal; keep feeding the rest.
		_, _ = dec.AddSymbol(uint32(s.Index), s.Data)
	}
	ok, data, err := dec.Decode()
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}
