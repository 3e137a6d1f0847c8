package crsf

// RawFrame is a complete, checksum-validated wire frame. It owns its bytes;
// frames yielded by the parser remain valid after the parser's buffer moves
// on. The zero value is not a valid frame.
type RawFrame struct {
	n    uint8
	data [MaxFrameSize]byte
}

// NewRawFrame copies a complete wire image into a RawFrame. The input must
// be a whole frame, address byte through CRC. It does not validate the
// checksum; use a Parser for untrusted bytes.
func NewRawFrame(wire []byte) (RawFrame, error) {
	var f RawFrame
	if len(wire) < minFrameLen+2 || len(wire) > MaxFrameSize {
		return f, ErrBufferTooSmall
	}
	f.n = uint8(copy(f.data[:], wire))
	return f, nil
}

// Bytes returns the full wire image, address byte through CRC.
func (f *RawFrame) Bytes() []byte { return f.data[:f.n] }

// Addr returns the frame's address byte.
func (f *RawFrame) Addr() Address { return Address(f.data[0]) }

// FrameLen returns the declared length byte (type through CRC).
func (f *RawFrame) FrameLen() int { return int(f.data[1]) }

// Type returns the frame type byte.
func (f *RawFrame) Type() FrameType { return FrameType(f.data[2]) }

// Payload returns the payload bytes between the type byte and the CRC.
func (f *RawFrame) Payload() []byte { return f.data[3 : f.n-1] }

// CRC returns the trailing checksum byte.
func (f *RawFrame) CRC() byte { return f.data[f.n-1] }

// Decode decodes the frame's payload into a typed Packet.
func (f *RawFrame) Decode() (Packet, error) {
	return DecodePayload(f.Type(), f.Payload())
}
