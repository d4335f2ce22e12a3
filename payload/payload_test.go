package payload

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSource(t *testing.T) {
	p, err := Text("HELLO").Resolve()
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO"), p.Data)
	assert.Equal(t, KindText, p.Kind)

	_, err = Text("").Resolve()
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644))

	p, err := File(path).Resolve()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, p.Data)
	assert.Equal(t, "blob.bin", p.Name)
	assert.Equal(t, KindFile, p.Kind)

	_, err = File(filepath.Join(dir, "missing")).Resolve()
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = File(empty).Resolve()
	assert.Error(t, err)
}

// makeWAV assembles a minimal RIFF file: fmt chunk then data chunk.
func makeWAV(samples []byte) []byte {
	var b []byte
	b = append(b, "RIFF"...)
	b = binary.LittleEndian.AppendUint32(b, uint32(4+8+16+8+len(samples)))
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = binary.LittleEndian.AppendUint32(b, 16)
	b = append(b, make([]byte, 16)...)
	b = append(b, "data"...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(samples)))
	b = append(b, samples...)
	return b
}

func TestWAVSource(t *testing.T) {
	samples := []byte{1, 2, 3, 4, 5, 6}
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, makeWAV(samples), 0o644))

	p, err := WAV(path).Resolve()
	require.NoError(t, err)
	assert.Equal(t, samples, p.Data)
	assert.Equal(t, KindWAV, p.Kind)
}

func TestWAVDataRejects(t *testing.T) {
	_, err := wavData([]byte("not a wav at all"))
	assert.Error(t, err)

	// Valid RIFF header but no data chunk.
	noData := makeWAV(nil)[:12+8+16]
	_, err = wavData(noData)
	assert.Error(t, err)
}

func TestWAVDataClampsOversizedChunk(t *testing.T) {
	w := makeWAV([]byte{9, 9})
	// Claim a data size past the file end.
	binary.LittleEndian.PutUint32(w[len(w)-6:], 4096)
	got, err := wavData(w)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, got)
}
