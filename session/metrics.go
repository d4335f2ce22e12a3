package session

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/plutolink/plutolink/payload"
)

// Metrics publishes session progress to a Prometheus registry. It
// implements Observer so it can sit next to the log observer in a fan-out.
type Metrics struct {
	reads       prometheus.Gauge
	snr         prometheus.Gauge
	rxBuffer    prometheus.Gauge
	decodedTot  prometheus.Counter
	failedTot   prometheus.Counter
	decodedByte prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plutolink", Name: "receive_reads",
			Help: "Receive buffers read in the current session.",
		}),
		snr: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plutolink", Name: "snr_db",
			Help: "SNR estimate of the most recent receive buffer.",
		}),
		rxBuffer: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plutolink", Name: "receive_buffer_samples",
			Help: "Configured receive buffer size in samples.",
		}),
		decodedTot: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plutolink", Name: "frames_decoded_total",
			Help: "Frames decoded successfully.",
		}),
		failedTot: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plutolink", Name: "sessions_failed_total",
			Help: "Sessions that ended without a decode.",
		}),
		decodedByte: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plutolink", Name: "decoded_bytes_total",
			Help: "Payload bytes recovered from decoded frames.",
		}),
	}
	reg.MustRegister(m.reads, m.snr, m.rxBuffer, m.decodedTot, m.failedTot, m.decodedByte)
	return m
}

func (m *Metrics) OnLog(string, Severity) {}

func (m *Metrics) OnStats(s Stats) {
	m.reads.Set(float64(s.Reads))
	m.snr.Set(s.LastSNRdB)
	m.rxBuffer.Set(float64(s.ReceiveBufferSize))
}

func (m *Metrics) OnDecoded(p payload.Payload) {
	m.decodedTot.Inc()
	m.decodedByte.Add(float64(len(p.Data)))
}

func (m *Metrics) OnFailed(string) {
	m.failedTot.Inc()
}
