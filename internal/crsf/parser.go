package crsf

import "iter"

// parserBufCap is the accumulation buffer size. Two maximum frames of slack
// is enough for any sane read-loop chunk size; larger ingests are rejected
// with ErrOverflow rather than grown.
const parserBufCap = 2 * MaxFrameSize

// Parser reassembles CRSF frames from an arbitrarily fragmented byte
// stream. Bytes left over from one Ingest call are carried into the next,
// so splitting a stream at any point yields the same frames and the same
// errors in the same order. The zero value is ready to use.
//
// A Parser is not safe for concurrent use; give each stream its own.
type Parser struct {
	buf [parserBufCap]byte
	n   int
}

// NewParser returns an empty Parser.
func NewParser() *Parser { return &Parser{} }

// Reset discards all buffered bytes.
func (p *Parser) Reset() { p.n = 0 }

// Buffered returns the number of bytes waiting for frame completion.
func (p *Parser) Buffered() int { return p.n }

// IngestRaw appends data to the parser's buffer and returns a one-shot
// sequence of the complete frames it now contains, in stream order.
// ErrSync and ErrCRC are yielded inline as resync events; iteration
// continues after them. A data slice that cannot fit in the remaining
// buffer space resets the parser, yields ErrOverflow, and discards data
// entirely; the stream resumes with the next call.
//
// Yielded frames own their bytes and stay valid after iteration.
func (p *Parser) IngestRaw(data []byte) iter.Seq2[RawFrame, error] {
	return func(yield func(RawFrame, error) bool) {
		if p.n+len(data) > parserBufCap {
			p.Reset()
			yield(RawFrame{}, ErrOverflow)
			return
		}
		p.n += copy(p.buf[p.n:], data)

		for {
			if p.n < 2 {
				return // need addr + len to judge anything
			}
			fl := int(p.buf[1])
			if fl < minFrameLen || fl > maxFrameLen {
				p.discard(1)
				if !yield(RawFrame{}, ErrSync) {
					return
				}
				continue
			}
			total := 2 + fl
			if p.n < total {
				return // frame incomplete, wait for more bytes
			}
			if crc8(p.buf[2:total-1]) != p.buf[total-1] {
				p.discard(1)
				if !yield(RawFrame{}, ErrCRC) {
					return
				}
				continue
			}
			var f RawFrame
			f.n = uint8(total)
			copy(f.data[:], p.buf[:total])
			p.discard(total)
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Ingest is IngestRaw plus payload decoding. Frames whose payload does not
// match their declared type yield a nil Packet with an ErrMalformed-wrapped
// error; unrecognized type codes decode as *Unknown without error.
func (p *Parser) Ingest(data []byte) iter.Seq2[Packet, error] {
	return func(yield func(Packet, error) bool) {
		for f, err := range p.IngestRaw(data) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			pkt, err := f.Decode()
			if !yield(pkt, err) {
				return
			}
		}
	}
}

// discard drops the first k buffered bytes.
func (p *Parser) discard(k int) {
	copy(p.buf[:], p.buf[k:p.n])
	p.n -= k
}
