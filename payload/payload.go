// Package payload resolves the bytes a session transmits: an inline text
// message, a file read verbatim, or the sample data of a WAV recording.
package payload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind labels what the payload bytes represent. It travels with the
// decoded result so the receiver side can present it sensibly.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
	KindWAV  Kind = "wav"
)

// Payload is what a source hands to the session controller.
type Payload struct {
	Data []byte
	Name string
	Kind Kind
}

// Source yields the payload for one session. Resolution happens at session
// start, so a missing file fails fast before the radio is touched.
type Source interface {
	Resolve() (Payload, error)
}

// Text returns a source for an inline UTF-8 message.
func Text(msg string) Source { return textSource(msg) }

type textSource string

func (s textSource) Resolve() (Payload, error) {
	if len(s) == 0 {
		return Payload{}, errors.New("payload: empty message")
	}
	return Payload{Data: []byte(s), Name: "message.txt", Kind: KindText}, nil
}

// File returns a source that reads path verbatim.
func File(path string) Source { return fileSource(path) }

type fileSource string

func (s fileSource) Resolve() (Payload, error) {
	data, err := os.ReadFile(string(s))
	if err != nil {
		return Payload{}, fmt.Errorf("payload: %w", err)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("payload: %s is empty", s)
	}
	return Payload{Data: data, Name: filepath.Base(string(s)), Kind: KindFile}, nil
}

// WAV returns a source that extracts the raw bytes of the data chunk from
// a RIFF WAV file. The format chunk is not interpreted; the receiver gets
// the samples as an opaque byte blob.
func WAV(path string) Source { return wavSource(path) }

type wavSource string

func (s wavSource) Resolve() (Payload, error) {
	raw, err := os.ReadFile(string(s))
	if err != nil {
		return Payload{}, fmt.Errorf("payload: %w", err)
	}
	data, err := wavData(raw)
	if err != nil {
		return Payload{}, fmt.Errorf("payload: %s: %w", s, err)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("payload: %s has an empty data chunk", s)
	}
	return Payload{Data: data, Name: filepath.Base(string(s)), Kind: KindWAV}, nil
}
