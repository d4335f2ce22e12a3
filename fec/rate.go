package fec

import "fmt"

// Rate selects one of the four forward error correction rates the link
// supports. Each rate fixes both the encoder redundancy pattern and the
// expansion factor the receiver uses to size its decode window, so the value
// is part of the in-air contract: both ends must agree on it out of band.
type Rate uint8

const (
	// RateHalf sends every data bit twice.
	RateHalf Rate = iota
	// RateThird sends every data bit three times.
	RateThird
	// RateTwoThirds sends bit pairs followed by their XOR parity.
	RateTwoThirds
	// RateThreeQuarters sends bit triples followed by the XOR parity of the
	// first two.
	RateThreeQuarters
)

// ParseRate maps the conventional "k/n" notation to a Rate.
func ParseRate(s string) (Rate, error) {
	switch s {
	case "1/2":
		return RateHalf, nil
	case "1/3":
		return RateThird, nil
	case "2/3":
		return RateTwoThirds, nil
	case "3/4":
		return RateThreeQuarters, nil
	}
	return 0, fmt.Errorf("unknown code rate %q (want 1/2, 1/3, 2/3 or 3/4)", s)
}

func (r Rate) String() string {
	switch r {
	case RateHalf:
		return "1/2"
	case RateThird:
		return "1/3"
	case RateTwoThirds:
		return "2/3"
	case RateThreeQuarters:
		return "3/4"
	}
	return fmt.Sprintf("rate(%d)", uint8(r))
}

// Expansion returns the number of encoded bits emitted per data bit. The
// receiver multiplies this by the expected payload bit count to bound its
// decode window.
func (r Rate) Expansion() float64 {
	switch r {
	case RateThird:
		return 3.0
	case RateTwoThirds:
		return 1.5
	case RateThreeQuarters:
		return 4.0 / 3.0
	}
	return 2.0
}

// Encode applies the rate's redundancy to bits. Group-based rates pad odd
// tails: 2/3 encodes a lone final bit as (b, 0, b), 3/4 zero-fills a partial
// final triple before appending its parity position.
func (r Rate) Encode(bits []byte) []byte {
	switch r {
	case RateHalf:
		out := make([]byte, 0, 2*len(bits))
		for _, b := range bits {
			out = append(out, b, b)
		}
		return out
	case RateThird:
		out := make([]byte, 0, 3*len(bits))
		for _, b := range bits {
			out = append(out, b, b, b)
		}
		return out
	case RateTwoThirds:
		out := make([]byte, 0, (len(bits)+1)/2*3)
		for i := 0; i < len(bits); i += 2 {
			if i+1 < len(bits) {
				out = append(out, bits[i], bits[i+1], bits[i]^bits[i+1])
			} else {
				out = append(out, bits[i], 0, bits[i])
			}
		}
		return out
	case RateThreeQuarters:
		out := make([]byte, 0, (len(bits)+2)/3*4)
		for i := 0; i < len(bits); i += 3 {
			if i+2 < len(bits) {
				out = append(out, bits[i], bits[i+1], bits[i+2], bits[i]^bits[i+1])
			} else {
				var g [3]byte
				copy(g[:], bits[i:])
				out = append(out, g[0], g[1], g[2], g[0]^g[1])
			}
		}
		return out
	}
	return nil
}

// Decode recovers data bits from a received window. It is a hard-decision
// extraction, not a search: the repetition rates vote (OR for pairs,
// majority for triples) and the parity rates strip the check bit without
// using it. Output length is a function of the input length alone; callers
// truncate to the bit count they expect. Fewer than two input bits decode
// to nothing.
func (r Rate) Decode(bits []byte) []byte {
	if len(bits) < 2 {
		return nil
	}
	switch r {
	case RateHalf:
		out := make([]byte, 0, len(bits)/2)
		for i := 0; i+1 < len(bits); i += 2 {
			if bits[i]|bits[i+1] != 0 {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
		return out
	case RateThird:
		out := make([]byte, 0, len(bits)/3)
		for i := 0; i+2 < len(bits); i += 3 {
			if int(bits[i])+int(bits[i+1])+int(bits[i+2]) >= 2 {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
		return out
	case RateTwoThirds:
		out := make([]byte, 0, len(bits)/3*2)
		for i := 0; i+2 < len(bits); i += 3 {
			out = append(out, bits[i], bits[i+1])
		}
		return out
	case RateThreeQuarters:
		out := make([]byte, 0, (len(bits)+3)/4*3)
		i := 0
		for ; i+4 <= len(bits); i += 4 {
			out = append(out, bits[i], bits[i+1], bits[i+2])
		}
		// The receive window is sized by ceil(n*4/3) and can cut the final
		// padded group short; whatever survives of it is data, so pass it
		// through and let the frame layer truncate.
		if rem := bits[i:]; len(rem) > 0 {
			if len(rem) > 3 {
				rem = rem[:3]
			}
			out = append(out, rem...)
		}
		return out
	}
	return nil
}
