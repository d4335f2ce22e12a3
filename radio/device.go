// Package radio defines the contract between the link core and a radio
// transceiver front end. Real hardware drivers (PlutoSDR over libiio and
// the like) live outside this module; internal/sim provides an in-process
// stand-in for tests and demos.
package radio

// Params carries the front-end configuration for one session.
type Params struct {
	TXFreqHz   int64
	RXFreqHz   int64
	SampleRate int
	TXGainDB   int
	RXGainDB   int
	// CyclicTX arms autonomous waveform replay: the device repeats the
	// transmitted buffer until it is released.
	CyclicTX bool
}

// Device is a radio transceiver as the session controller sees it.
// Configure and Transmit may block during setup; Receive blocks until one
// buffer of the configured size is available. The release methods must be
// idempotent and safe to call even when the corresponding buffer was never
// armed.
type Device interface {
	Configure(p Params) error
	SetReceiveBufferSize(samples int) error
	Transmit(samples []complex64) error
	Receive() ([]complex64, error)
	ReleaseTransmitBuffer()
	ReleaseReceiveBuffer()
}
