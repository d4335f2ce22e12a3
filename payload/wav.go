package payload

import (
	"encoding/binary"
	"errors"
)

// wavData walks the RIFF chunk list and returns the contents of the data
// chunk. A declared chunk size running past the file end is clamped; some
// recorders write it sloppily.
func wavData(raw []byte) ([]byte, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF WAVE file")
	}
	off := 12
	for off+8 <= len(raw) {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		off += 8
		if size < 0 || off+size > len(raw) {
			size = len(raw) - off
		}
		if id == "data" {
			return raw[off : off+size], nil
		}
		// Chunks are word aligned.
		off += size + size%2
	}
	return nil, errors.New("no data chunk")
}
