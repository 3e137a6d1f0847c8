package crsf

import "errors"

// Stream and codec errors. ErrSync and ErrCRC are yielded inline by the
// parser and never terminate the stream; the parser has already resynced by
// the time the caller sees them. All are matchable with errors.Is even when
// wrapped with frame detail.
var (
	// ErrSync means the byte at the head of the buffer could not start a
	// frame (declared length outside the valid range). One byte was dropped.
	ErrSync = errors.New("crsf: lost sync")

	// ErrCRC means a fully buffered candidate frame failed its checksum.
	// One byte was dropped and scanning resumed.
	ErrCRC = errors.New("crsf: crc mismatch")

	// ErrMalformed means a validated frame carried a payload that does not
	// decode as its declared type.
	ErrMalformed = errors.New("crsf: malformed packet")

	// ErrOverflow means an ingest call would have exceeded the internal
	// buffer; the buffer was reset and the offending bytes discarded.
	ErrOverflow = errors.New("crsf: parser buffer overflow")

	// ErrBufferTooSmall means an encode destination cannot hold the frame.
	ErrBufferTooSmall = errors.New("crsf: buffer too small")
)
