package fec

import "hash/crc32"

// Checksum computes the frame integrity check: CRC-32 with the IEEE
// polynomial over the unencoded payload bytes. The value rides in the frame
// header and is verified after FEC decode, so it catches both channel
// residue and decoder slips.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
