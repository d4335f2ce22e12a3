package wire

const (
	// maxScanOffsets caps the preamble search to bound worst-case latency
	// on large receive buffers.
	maxScanOffsets = 30000

	// scanMargin keeps the scan away from a tail too short to hold the
	// length and CRC fields plus slack.
	scanMargin = 50

	earlyExitErrors = 2
	acceptErrors    = 6
)

// FindPreamble slides the 64-bit preamble over bits and returns the offset
// with the best bit agreement. The search early-exits once a candidate
// matches within two bit errors. ok is false when no offset reaches 58 of
// 64 matching bits; a weak or absent preamble means there is no frame in
// this buffer, which is the common case while listening.
func FindPreamble(bits []byte) (pos int, ok bool) {
	pre := Preamble()
	scanMax := len(bits) - (PreambleLen + lengthBits + crcBits + scanMargin)
	if scanMax > maxScanOffsets {
		scanMax = maxScanOffsets
	}
	if scanMax <= 0 {
		return 0, false
	}

	bestPos, bestMatch := -1, 0
	for i := 0; i < scanMax; i++ {
		m := 0
		for j, p := range pre {
			if bits[i+j] == p {
				m++
			}
		}
		if m > bestMatch {
			bestMatch, bestPos = m, i
			if bestMatch >= PreambleLen-earlyExitErrors {
				break
			}
		}
	}
	if bestPos < 0 || bestMatch < PreambleLen-acceptErrors {
		return 0, false
	}
	return bestPos, true
}
