package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/plutolink/plutolink/payload"
)

// Severity classifies observer log messages.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// Observer receives session progress from the worker goroutine. Callbacks
// are invoked between receive reads and must not block; a slow observer
// stalls the listen loop.
type Observer interface {
	OnLog(msg string, sev Severity)
	OnStats(s Stats)
	OnDecoded(p payload.Payload)
	OnFailed(reason string)
}

// Observers fans out to each member in order.
type Observers []Observer

func (o Observers) OnLog(msg string, sev Severity) {
	for _, ob := range o {
		ob.OnLog(msg, sev)
	}
}

func (o Observers) OnStats(s Stats) {
	for _, ob := range o {
		ob.OnStats(s)
	}
}

func (o Observers) OnDecoded(p payload.Payload) {
	for _, ob := range o {
		ob.OnDecoded(p)
	}
}

func (o Observers) OnFailed(reason string) {
	for _, ob := range o {
		ob.OnFailed(reason)
	}
}

// textPreviewLen bounds how much decoded text the log observer shows.
const textPreviewLen = 140

// LogObserver reports session progress through a charmbracelet logger.
type LogObserver struct {
	L *log.Logger
}

func (o LogObserver) OnLog(msg string, sev Severity) {
	switch sev {
	case SeverityError:
		o.L.Error(msg)
	case SeverityWarning:
		o.L.Warn(msg)
	default:
		o.L.Info(msg)
	}
}

func (o LogObserver) OnStats(s Stats) {
	o.L.Debug("stats",
		"state", s.State.String(),
		"reads", s.Reads,
		"snr_db", fmt.Sprintf("%.1f", s.LastSNRdB),
		"rx_buffer", s.ReceiveBufferSize,
		"frame_samples", s.FrameSamples,
	)
}

func (o LogObserver) OnDecoded(p payload.Payload) {
	if p.Kind == payload.KindText {
		o.L.Info("decoded message", "text", textPreview(p.Data))
		return
	}
	o.L.Info("decoded payload", "name", p.Name, "kind", string(p.Kind), "bytes", len(p.Data))
}

func (o LogObserver) OnFailed(reason string) {
	o.L.Error("session failed", "reason", reason)
}

// textPreview renders decoded bytes as printable text, lossily: invalid
// UTF-8 is dropped and long messages are cut at textPreviewLen runes.
func textPreview(data []byte) string {
	s := strings.ToValidUTF8(string(data), "")
	if utf8.RuneCountInString(s) <= textPreviewLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:textPreviewLen]) + "..."
}
