// Package modem converts between frame bits and the oversampled BPSK
// sample stream the radio device consumes and produces.
package modem

import "math"

// Amplitude scales the ±1 symbols before transmit. It leaves headroom in a
// signed 14-bit DAC range and matches the level the link was tuned with.
const Amplitude = 1 << 13

// Modulate maps each bit to a ±1 symbol on the in-phase arm, holds it for
// sps samples and scales to the transmit amplitude.
func Modulate(bits []byte, sps int) []complex64 {
	out := make([]complex64, 0, len(bits)*sps)
	for _, b := range bits {
		v := float32(-Amplitude)
		if b != 0 {
			v = Amplitude
		}
		for i := 0; i < sps; i++ {
			out = append(out, complex(v, 0))
		}
	}
	return out
}

// DetectBits recovers a hard bit per symbol period: average each sps-wide
// window and threshold the real part at zero. The last partial window is
// discarded, so the output is one symbol shorter than a full division
// would give.
func DetectBits(samples []complex64, sps int) []byte {
	if sps <= 0 {
		return nil
	}
	n := len(samples)/sps - 1
	if n <= 0 {
		return nil
	}
	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, s := range samples[i*sps : (i+1)*sps] {
			sum += float64(real(s))
		}
		if sum > 0 {
			bits[i] = 1
		}
	}
	return bits
}

// EstimateSNR returns a diagnostic signal-to-noise figure in dB: total
// sample power over the variance of the quadrature arm, which carries only
// noise for a real-valued BPSK waveform. Epsilons keep the value finite on
// silent or noiseless input.
func EstimateSNR(samples []complex64) float64 {
	if len(samples) == 0 {
		return 0
	}
	const eps = 1e-10
	var power, imSum float64
	for _, s := range samples {
		re, im := float64(real(s)), float64(imag(s))
		power += re*re + im*im
		imSum += im
	}
	n := float64(len(samples))
	power /= n
	imMean := imSum / n

	var imVar float64
	for _, s := range samples {
		d := float64(imag(s)) - imMean
		imVar += d * d
	}
	imVar /= n

	return 10 * math.Log10(power/(imVar+eps)+eps)
}
