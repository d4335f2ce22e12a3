package session

import "github.com/francoispqt/gojay"

// Stats is an immutable snapshot of one session's progress. The controller
// publishes a fresh value after every mutation, so a reader never observes
// a half-updated record.
type Stats struct {
	State             State
	Running           bool
	FramesTransmitted int
	Reads             int
	Decodes           int
	LastSNRdB         float64
	SNRHistory        []float64
	ReceiveBufferSize int
	FrameSamples      int
}

// MarshalJSONObject implements gojay.MarshalerJSONObject for the CLI's
// one-line stats output.
func (s *Stats) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("state", s.State.String())
	enc.BoolKey("running", s.Running)
	enc.IntKey("frames_tx", s.FramesTransmitted)
	enc.IntKey("reads", s.Reads)
	enc.IntKey("decodes", s.Decodes)
	enc.Float64Key("snr_db", s.LastSNRdB)
	enc.IntKey("rx_buffer", s.ReceiveBufferSize)
	enc.IntKey("frame_samples", s.FrameSamples)
}

func (s *Stats) IsNil() bool { return s == nil }

// snrRing keeps the last capacity SNR estimates, oldest evicted first.
type snrRing struct {
	buf  []float64
	next int
	full bool
}

func newSNRRing(capacity int) *snrRing {
	return &snrRing{buf: make([]float64, capacity)}
}

func (r *snrRing) push(v float64) {
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// values returns the history oldest first, as a fresh slice.
func (r *snrRing) values() []float64 {
	if !r.full {
		return append([]float64(nil), r.buf[:r.next]...)
	}
	out := make([]float64, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
