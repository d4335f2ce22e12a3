package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutolink/plutolink/fec"
	"github.com/plutolink/plutolink/internal/sim"
	"github.com/plutolink/plutolink/internal/wire"
	"github.com/plutolink/plutolink/modem"
	"github.com/plutolink/plutolink/payload"
	"github.com/plutolink/plutolink/radio"
)

// stubDevice scripts the listen loop: each entry is the buffer returned by
// one post-transmit read, nil meaning noise. Reads beyond the script and
// all pre-transmit reads return noise. Noise is a flat zero buffer, which
// detects as all-zero bits and never matches the preamble.
type stubDevice struct {
	mu          sync.Mutex
	script      [][]complex64
	noiseLen    int
	params      radio.Params
	configured  bool
	rxSize      int
	txArmed     bool
	receives    int
	listenReads int
	txReleases  int
	rxReleases  int
}

func (d *stubDevice) Configure(p radio.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = p
	d.configured = true
	return nil
}

func (d *stubDevice) SetReceiveBufferSize(samples int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rxSize = samples
	return nil
}

func (d *stubDevice) Transmit(samples []complex64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txArmed = true
	return nil
}

func (d *stubDevice) Receive() ([]complex64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receives++
	if !d.txArmed {
		return make([]complex64, d.noiseLen), nil
	}
	i := d.listenReads
	d.listenReads++
	if i < len(d.script) && d.script[i] != nil {
		return d.script[i], nil
	}
	return make([]complex64, d.noiseLen), nil
}

func (d *stubDevice) ReleaseTransmitBuffer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txReleases++
}

func (d *stubDevice) ReleaseReceiveBuffer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rxReleases++
}

func (d *stubDevice) counts() (receives, txReleases, rxReleases int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receives, d.txReleases, d.rxReleases
}

// recordObserver captures everything the worker reports.
type recordObserver struct {
	mu      sync.Mutex
	logs    []string
	decoded []payload.Payload
	failed  []string
}

func (o *recordObserver) OnLog(msg string, _ Severity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, msg)
}

func (o *recordObserver) OnStats(Stats) {}

func (o *recordObserver) OnDecoded(p payload.Payload) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decoded = append(o.decoded, p)
}

func (o *recordObserver) OnFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, reason)
}

func (o *recordObserver) outcome() (decoded []payload.Payload, failed []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]payload.Payload(nil), o.decoded...), append([]string(nil), o.failed...)
}

func fastConfig(maxReads int) Config {
	return Config{
		CodeRate:      "1/2",
		MaxReads:      maxReads,
		SettleDelayMS: 1,
	}
}

// frameBuffer renders a complete receivable buffer: silence, then the
// modulated frame, then more silence so symbol detection keeps its footing
// past the last data bit.
func frameBuffer(t *testing.T, data []byte, rate fec.Rate, sps int) []complex64 {
	t.Helper()
	lead := make([]complex64, 50*sps)
	tail := make([]complex64, 100*sps)
	buf := append(lead, modem.Modulate(wire.EncodeFrame(data, rate), sps)...)
	return append(buf, tail...)
}

func TestSessionExhaustsReadBudget(t *testing.T) {
	dev := &stubDevice{noiseLen: 4096}
	obs := &recordObserver{}
	ctrl := New(dev, obs)

	require.NoError(t, ctrl.Start(fastConfig(10), payload.Text("HELLO")))
	ctrl.Wait()

	st := ctrl.Stats()
	assert.Equal(t, StateStopped, st.State)
	assert.False(t, st.Running)
	assert.Equal(t, 10, st.Reads)
	assert.Equal(t, 0, st.Decodes)
	assert.Equal(t, 1, st.FramesTransmitted)

	receives, txRel, rxRel := dev.counts()
	// Two warm-up reads plus the ten counted ones.
	assert.Equal(t, 12, receives)
	assert.Equal(t, 1, txRel)
	assert.Equal(t, 1, rxRel)

	decoded, failed := obs.outcome()
	assert.Empty(t, decoded)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0], "no valid frame")
}

func TestSessionDecodesMidBudget(t *testing.T) {
	cfg := fastConfig(50)
	cfg.SamplesPerSymbol = 10
	want := []byte("HELLO WORLD")

	dev := &stubDevice{noiseLen: 4096, script: make([][]complex64, 7)}
	dev.script[6] = frameBuffer(t, want, fec.RateHalf, cfg.SamplesPerSymbol)
	obs := &recordObserver{}
	ctrl := New(dev, obs)

	require.NoError(t, ctrl.Start(cfg, payload.Text(string(want))))
	ctrl.Wait()

	st := ctrl.Stats()
	assert.Equal(t, StateStopped, st.State)
	assert.Equal(t, 7, st.Reads)
	assert.Equal(t, 1, st.Decodes)

	_, txRel, rxRel := dev.counts()
	assert.Equal(t, 1, txRel)
	assert.Equal(t, 1, rxRel)

	decoded, failed := obs.outcome()
	assert.Empty(t, failed)
	require.Len(t, decoded, 1)
	assert.Equal(t, want, decoded[0].Data)
	assert.Equal(t, payload.KindText, decoded[0].Kind)
}

func TestSessionDecodesEveryRate(t *testing.T) {
	for _, rate := range []fec.Rate{fec.RateHalf, fec.RateThird, fec.RateTwoThirds, fec.RateThreeQuarters} {
		t.Run(rate.String(), func(t *testing.T) {
			cfg := fastConfig(5)
			cfg.CodeRate = rate.String()
			cfg.SamplesPerSymbol = 10
			want := []byte("rate check payload")

			dev := &stubDevice{noiseLen: 4096, script: [][]complex64{
				frameBuffer(t, want, rate, cfg.SamplesPerSymbol),
			}}
			obs := &recordObserver{}
			ctrl := New(dev, obs)

			require.NoError(t, ctrl.Start(cfg, payload.Text(string(want))))
			ctrl.Wait()

			decoded, failed := obs.outcome()
			assert.Empty(t, failed)
			require.Len(t, decoded, 1)
			assert.Equal(t, want, decoded[0].Data)
			assert.Equal(t, 1, ctrl.Stats().Reads)
		})
	}
}

func TestStartRejectsBadConfig(t *testing.T) {
	dev := &stubDevice{noiseLen: 4096}
	ctrl := New(dev, nil)

	cfg := fastConfig(10)
	cfg.CodeRate = "9/10"
	assert.Error(t, ctrl.Start(cfg, payload.Text("x")))

	cfg = fastConfig(10)
	cfg.SamplesPerSymbol = 1
	assert.Error(t, ctrl.Start(cfg, payload.Text("x")))

	assert.Error(t, ctrl.Start(fastConfig(10), nil))
	assert.Error(t, ctrl.Start(fastConfig(10), payload.Text("")))

	// None of the rejects may have touched the device.
	assert.False(t, dev.configured)
	receives, txRel, rxRel := dev.counts()
	assert.Zero(t, receives)
	assert.Zero(t, txRel)
	assert.Zero(t, rxRel)
}

func TestStopCancelsListening(t *testing.T) {
	dev := &stubDevice{noiseLen: 4096}
	obs := &recordObserver{}
	ctrl := New(dev, obs)

	require.NoError(t, ctrl.Start(fastConfig(1_000_000), payload.Text("HELLO")))
	// Give the worker time to reach the listen loop, then cancel.
	time.Sleep(20 * time.Millisecond)
	ctrl.Stop()

	st := ctrl.Stats()
	assert.Equal(t, StateStopped, st.State)
	assert.Less(t, st.Reads, 1_000_000)

	_, failed := obs.outcome()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0], "cancelled")

	_, txRel, rxRel := dev.counts()
	assert.Equal(t, 1, txRel)
	assert.Equal(t, 1, rxRel)
}

func TestStartWhileRunning(t *testing.T) {
	dev := &stubDevice{noiseLen: 4096}
	ctrl := New(dev, nil)

	require.NoError(t, ctrl.Start(fastConfig(1_000_000), payload.Text("HELLO")))
	assert.Error(t, ctrl.Start(fastConfig(10), payload.Text("HELLO")))
	ctrl.Stop()
}

func TestSessionOverSimulatedChannel(t *testing.T) {
	cfg := fastConfig(20)
	want := []byte("over the air, more or less")

	dev := sim.NewChannel(sim.Options{NoiseStdDev: 50, LeadInReads: 1, Seed: 3})
	obs := &recordObserver{}
	ctrl := New(dev, obs)

	require.NoError(t, ctrl.Start(cfg, payload.Text(string(want))))
	ctrl.Wait()

	decoded, failed := obs.outcome()
	assert.Empty(t, failed)
	require.Len(t, decoded, 1)
	assert.Equal(t, want, decoded[0].Data)

	st := ctrl.Stats()
	assert.Equal(t, 1, st.Decodes)
	assert.Greater(t, st.Reads, 1, "lead-in read must come first")
	assert.Greater(t, st.LastSNRdB, 10.0)
}

func TestControllerIsReusable(t *testing.T) {
	dev := &stubDevice{noiseLen: 4096}
	obs := &recordObserver{}
	ctrl := New(dev, obs)

	for i := 0; i < 2; i++ {
		require.NoError(t, ctrl.Start(fastConfig(3), payload.Text("HELLO")))
		ctrl.Wait()
		assert.Equal(t, 3, ctrl.Stats().Reads, "run %d", i)
	}

	_, failed := obs.outcome()
	assert.Len(t, failed, 2)
	_, txRel, rxRel := dev.counts()
	assert.Equal(t, 2, txRel)
	assert.Equal(t, 2, rxRel)
}
