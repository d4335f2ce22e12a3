// Package sim provides an in-process radio device. The transmitted
// waveform is replayed cyclically into receive buffers through a simple
// impairment model: arbitrary sample alignment per read, additive white
// Gaussian noise on both arms, and per-sample polarity corruption. It
// stands in for real hardware in tests, the CLI and the evaluation tool.
package sim

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/plutolink/plutolink/internal/dropper"
	"github.com/plutolink/plutolink/radio"
)

// Options tunes the channel impairments.
type Options struct {
	// NoiseStdDev is the AWGN sigma applied to both arms, in raw sample
	// units (the transmit amplitude is 2^13).
	NoiseStdDev float64
	// FlipProb is the per-sample probability of a polarity inversion.
	FlipProb float64
	// LeadInReads is the number of reads after a transmit that still
	// return pure noise, emulating a signal that appears late.
	LeadInReads int
	// AlignSamples quantizes the replay offset of each read. Zero means
	// arbitrary alignment, as a real front end would give.
	AlignSamples int
	// Seed fixes the noise and alignment sequence; zero picks 1.
	Seed int64
}

// Channel implements radio.Device in memory.
type Channel struct {
	opts Options

	mu          sync.Mutex
	rng         *rand.Rand
	flip        *dropper.Bernoulli
	params      radio.Params
	configured  bool
	waveform    []complex64
	rxSize      int
	signalReads int
}

var _ radio.Device = (*Channel)(nil)

func NewChannel(opts Options) *Channel {
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	return &Channel{
		opts: opts,
		rng:  rng,
		flip: dropper.New(opts.FlipProb, rng),
	}
}

func (c *Channel) Configure(p radio.Params) error {
	if p.SampleRate <= 0 {
		return errors.New("sim: sample rate must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
	c.configured = true
	return nil
}

func (c *Channel) SetReceiveBufferSize(samples int) error {
	if samples <= 0 {
		return errors.New("sim: receive buffer size must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rxSize = samples
	return nil
}

func (c *Channel) Transmit(samples []complex64) error {
	if len(samples) == 0 {
		return errors.New("sim: empty waveform")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured {
		return errors.New("sim: transmit before configure")
	}
	c.waveform = append([]complex64(nil), samples...)
	c.signalReads = 0
	return nil
}

// Receive fills one buffer of the configured size. Before a transmit, and
// during the lead-in, the buffer is noise only; afterwards the waveform is
// overlaid cyclically starting at a random offset.
func (c *Channel) Receive() ([]complex64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rxSize <= 0 {
		return nil, errors.New("sim: receive buffer size not set")
	}

	buf := make([]complex64, c.rxSize)
	sigma := c.opts.NoiseStdDev
	if sigma > 0 {
		for i := range buf {
			buf[i] = complex(
				float32(c.rng.NormFloat64()*sigma),
				float32(c.rng.NormFloat64()*sigma),
			)
		}
	}

	if len(c.waveform) == 0 {
		return buf, nil
	}
	c.signalReads++
	if c.signalReads <= c.opts.LeadInReads {
		return buf, nil
	}

	start := c.rng.Intn(len(c.waveform))
	if c.opts.AlignSamples > 1 {
		start -= start % c.opts.AlignSamples
	}
	for i := range buf {
		s := c.waveform[(start+i)%len(c.waveform)]
		if c.flip.Hit() {
			s = -s
		}
		buf[i] += s
	}
	return buf, nil
}

// ReleaseTransmitBuffer stops the cyclic replay.
func (c *Channel) ReleaseTransmitBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waveform = nil
}

func (c *Channel) ReleaseReceiveBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rxSize = 0
}
