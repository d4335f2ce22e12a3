// Package session drives one transmit-and-receive cycle on a radio device:
// validate the configuration, frame and modulate the payload, arm a cyclic
// transmit, then search a bounded number of receive buffers for a valid
// frame. Progress is reported through observers; state is published as
// immutable snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plutolink/plutolink/fec"
	"github.com/plutolink/plutolink/internal/wire"
	"github.com/plutolink/plutolink/modem"
	"github.com/plutolink/plutolink/payload"
	"github.com/plutolink/plutolink/radio"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateConfigured
	StateTransmitting
	StateListening
	StateDecoded
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfigured:
		return "configured"
	case StateTransmitting:
		return "transmitting"
	case StateListening:
		return "listening"
	case StateDecoded:
		return "decoded"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	snrHistoryLen = 100
	warmupReads   = 2
	statsEvery    = 25

	// minDetectSymbols skips symbol detection on buffers too small to
	// plausibly contain a frame.
	minDetectSymbols = 200

	minReceiveBuffer = 256 * 1024
	maxReceiveBuffer = 2 * 1024 * 1024
)

// Controller owns a radio device for the duration of a session. At most
// one session runs at a time; a finished controller can be started again.
type Controller struct {
	dev radio.Device
	obs Observer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	stats atomic.Pointer[Stats]
}

// New wires a controller to its device and observer. A nil observer is
// replaced by an empty fan-out.
func New(dev radio.Device, obs Observer) *Controller {
	if obs == nil {
		obs = Observers(nil)
	}
	c := &Controller{dev: dev, obs: obs}
	c.stats.Store(&Stats{State: StateIdle})
	return c
}

// Stats returns the latest published snapshot.
func (c *Controller) Stats() Stats { return *c.stats.Load() }

// Start validates cfg, resolves the payload and launches the session
// worker. It returns before the cycle completes; the outcome arrives
// through the observer. Validation and payload problems are returned
// synchronously and leave the device untouched.
func (c *Controller) Start(cfg Config, src payload.Source) error {
	rate, err := cfg.Validate()
	if err != nil {
		return err
	}
	if src == nil {
		return errors.New("session: no payload source")
	}
	p, err := src.Resolve()
	if err != nil {
		return err
	}
	if len(p.Data) == 0 {
		return errors.New("session: empty payload")
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("session: already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx, cfg, rate, p)
	return nil
}

// Stop requests cancellation and blocks until the worker has released the
// device. Calling it on an idle controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	cancel()
	<-done
}

// Wait blocks until the current session finishes. It returns immediately
// when nothing is running.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	running := c.running
	c.mu.Unlock()
	if running && done != nil {
		<-done
	}
}

func (c *Controller) run(ctx context.Context, cfg Config, rate fec.Rate, p payload.Payload) {
	defer func() {
		c.mu.Lock()
		c.running = false
		close(c.done)
		c.mu.Unlock()
	}()

	s := session{ctrl: c, cfg: cfg, rate: rate, snr: newSNRRing(snrHistoryLen)}
	s.reset()
	s.execute(ctx, p)
}

// session holds the worker-local state of one cycle. Everything here is
// touched by the worker goroutine only; cross-goroutine visibility goes
// through the controller's atomic snapshot.
type session struct {
	ctrl *Controller
	cfg  Config
	rate fec.Rate
	snr  *snrRing

	released bool
}

func (s *session) reset() {
	s.publish(func(st *Stats) {
		*st = Stats{State: StateConfigured, Running: true}
	})
}

// publish installs a mutated copy of the current snapshot.
func (s *session) publish(mutate func(*Stats)) {
	next := *s.ctrl.stats.Load()
	mutate(&next)
	s.ctrl.stats.Store(&next)
}

func (s *session) setState(st State) {
	s.publish(func(snap *Stats) { snap.State = st })
}

// release frees both device buffers. Exactly once per session; the device
// contract makes the underlying calls safe even when a buffer was never
// armed.
func (s *session) release() {
	if s.released {
		return
	}
	s.released = true
	s.ctrl.dev.ReleaseTransmitBuffer()
	s.ctrl.dev.ReleaseReceiveBuffer()
}

// fail drives the terminal failure path: Failed, buffers released, Stopped.
func (s *session) fail(reason string) {
	s.ctrl.obs.OnLog(reason, SeverityError)
	s.setState(StateFailed)
	s.release()
	s.publish(func(st *Stats) {
		st.State = StateStopped
		st.Running = false
	})
	s.ctrl.obs.OnStats(s.ctrl.Stats())
	s.ctrl.obs.OnFailed(reason)
}

// receiveBufferSize gives the device a quarter more room than one frame,
// clamped to sane hardware bounds.
func receiveBufferSize(frameSamples int) int {
	size := frameSamples + frameSamples/4
	if size < minReceiveBuffer {
		size = minReceiveBuffer
	}
	if size > maxReceiveBuffer {
		size = maxReceiveBuffer
	}
	return size
}

func (s *session) execute(ctx context.Context, p payload.Payload) {
	cfg := s.cfg
	if err := s.ctrl.dev.Configure(radio.Params{
		TXFreqHz:   cfg.TXFreqHz,
		RXFreqHz:   cfg.RXFreqHz,
		SampleRate: cfg.SampleRate,
		TXGainDB:   cfg.TXGainDB,
		RXGainDB:   cfg.RXGainDB,
		CyclicTX:   true,
	}); err != nil {
		s.fail("configure radio: " + err.Error())
		return
	}

	frameBits := wire.EncodeFrame(p.Data, s.rate)
	waveform := modem.Modulate(frameBits, cfg.SamplesPerSymbol)
	rxSize := receiveBufferSize(len(waveform))
	if err := s.ctrl.dev.SetReceiveBufferSize(rxSize); err != nil {
		s.fail("size receive buffer: " + err.Error())
		return
	}
	s.publish(func(st *Stats) {
		st.ReceiveBufferSize = rxSize
		st.FrameSamples = len(waveform)
	})
	s.ctrl.obs.OnLog(fmt.Sprintf(
		"frame ready: %d payload bytes, %d bits at rate %s, %d samples",
		len(p.Data), len(frameBits), s.rate, len(waveform)), SeverityInfo)
	s.ctrl.obs.OnStats(s.ctrl.Stats())

	// Warm-up reads flush stale device buffers before the transmit is
	// armed. They do not count against the read budget.
	for i := 0; i < warmupReads; i++ {
		if _, err := s.ctrl.dev.Receive(); err != nil {
			s.fail("warm-up receive: " + err.Error())
			return
		}
	}

	s.setState(StateTransmitting)
	if err := s.ctrl.dev.Transmit(waveform); err != nil {
		s.fail("transmit: " + err.Error())
		return
	}
	s.publish(func(st *Stats) { st.FramesTransmitted = 1 })
	s.ctrl.obs.OnLog("transmit armed, cyclic replay running", SeverityInfo)

	// Let the front end settle before trusting received samples.
	select {
	case <-time.After(cfg.settleDelay()):
	case <-ctx.Done():
		s.fail("cancelled")
		return
	}

	s.setState(StateListening)
	var decoded []byte
	cancelled := false
	for n := 0; n < cfg.MaxReads; n++ {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		buf, err := s.ctrl.dev.Receive()
		if err != nil {
			s.fail("receive: " + err.Error())
			return
		}
		snr := modem.EstimateSNR(buf)
		s.snr.push(snr)
		s.publish(func(st *Stats) {
			st.Reads++
			st.LastSNRdB = snr
			st.SNRHistory = s.snr.values()
		})

		bits := modem.DetectBits(buf, cfg.SamplesPerSymbol)
		if len(bits) > minDetectSymbols {
			if pos, ok := wire.FindPreamble(bits); ok {
				if data := wire.DecodeFrame(bits, pos+wire.PreambleLen, s.rate); data != nil {
					decoded = data
					break
				}
			}
		}
		if n%statsEvery == 0 {
			s.ctrl.obs.OnStats(s.ctrl.Stats())
		}
	}

	if decoded == nil {
		if cancelled {
			s.fail("cancelled")
		} else {
			s.fail(fmt.Sprintf("no valid frame in %d reads", s.ctrl.Stats().Reads))
		}
		return
	}

	s.publish(func(st *Stats) {
		st.State = StateDecoded
		st.Decodes = 1
	})
	s.ctrl.obs.OnStats(s.ctrl.Stats())
	s.release()
	s.publish(func(st *Stats) {
		st.State = StateStopped
		st.Running = false
	})

	st := s.ctrl.Stats()
	s.ctrl.obs.OnDecoded(payload.Payload{Data: decoded, Name: p.Name, Kind: p.Kind})
	s.ctrl.obs.OnLog(fmt.Sprintf(
		"decoded %d bytes after %d reads (snr=%.1f dB)",
		len(decoded), st.Reads, st.LastSNRdB), SeveritySuccess)
}
