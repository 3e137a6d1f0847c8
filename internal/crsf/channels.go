package crsf

// RC channel packets. Both layouts pack channel values as contiguous
// little-endian bit fields: each value's least significant bit lands at the
// current bit offset, counted LSB-first within each byte.

// ChannelCount is the number of channels in the fixed RC frame.
const ChannelCount = 16

const (
	rcChannelBits = 11
	rcChannelsLen = ChannelCount * rcChannelBits / 8 // 22
)

// readBits extracts a width-bit little-endian field starting at bit offset
// off. Callers guarantee the field lies within p.
func readBits(p []byte, off, width uint) uint16 {
	var v uint32
	base := off / 8
	n := (off%8 + width + 7) / 8
	for i := uint(0); i < n; i++ {
		v |= uint32(p[base+i]) << (8 * i)
	}
	return uint16(v >> (off % 8) & (1<<width - 1))
}

// writeBits stores a width-bit little-endian field starting at bit offset
// off. Bits outside the field are left untouched, so fields can be written
// in any order over a zeroed buffer.
func writeBits(p []byte, off, width uint, val uint16) {
	v := uint32(val&(1<<width-1)) << (off % 8)
	base := off / 8
	n := (off%8 + width + 7) / 8
	for i := uint(0); i < n; i++ {
		p[base+i] |= byte(v >> (8 * i))
	}
}

// ChannelTicksToUs converts a channel value from protocol ticks to
// microseconds: 992 ticks is 1500us center, 8 ticks span 5us.
func ChannelTicksToUs(ticks uint16) uint16 {
	return uint16((int32(ticks)-992)*5/8 + 1500)
}

// ChannelUsToTicks is the inverse of ChannelTicksToUs.
func ChannelUsToTicks(us uint16) uint16 {
	return uint16((int32(us)-1500)*8/5 + 992)
}

// RCChannelsPacked is the fixed 16-channel control frame (type 0x16).
// Values are 11-bit protocol ticks.
type RCChannelsPacked [ChannelCount]uint16

func (*RCChannelsPacked) Type() FrameType { return TypeRCChannelsPacked }

func (c *RCChannelsPacked) appendPayload(dst []byte) (int, error) {
	clear(dst[:rcChannelsLen])
	for i, v := range c {
		writeBits(dst, uint(i)*rcChannelBits, rcChannelBits, v)
	}
	return rcChannelsLen, nil
}

func decodeRCChannelsPacked(p []byte) (Packet, error) {
	if len(p) < rcChannelsLen {
		return nil, malformed(TypeRCChannelsPacked, p)
	}
	c := &RCChannelsPacked{}
	for i := range c {
		c[i] = readBits(p, uint(i)*rcChannelBits, rcChannelBits)
	}
	return c, nil
}

// Subset configuration byte: bits 0-4 are the first channel index, bits 5-6
// select the resolution.
const (
	subsetFirstChannelMask = 0x1F
	subsetResolutionShift  = 5
	subsetResolutionMask   = 0x03
)

// subsetResolutionBits maps the 2-bit resolution code to bits per channel.
var subsetResolutionBits = [4]uint8{10, 11, 12, 13}

// SubsetRCChannels is the variable-resolution channel frame (type 0x17).
// It carries a contiguous run of channels starting at FirstChannel, each
// Resolution bits wide. The channel count is implied by the payload length,
// so decode derives it and encode sizes the payload from Count.
type SubsetRCChannels struct {
	FirstChannel uint8 // index of the first channel in the run
	Resolution   uint8 // bits per channel: 10, 11, 12 or 13
	Count        uint8
	Channels     [ChannelCount]uint16
}

func (*SubsetRCChannels) Type() FrameType { return TypeSubsetRCChannels }

func (s *SubsetRCChannels) appendPayload(dst []byte) (int, error) {
	code := -1
	for i, bits := range subsetResolutionBits {
		if s.Resolution == bits {
			code = i
			break
		}
	}
	if code < 0 || s.Count == 0 || int(s.Count) > ChannelCount ||
		int(s.FirstChannel) > subsetFirstChannelMask {
		return 0, ErrMalformed
	}
	total := 1 + (int(s.Count)*int(s.Resolution)+7)/8
	if total > len(dst) {
		return 0, ErrBufferTooSmall
	}
	clear(dst[:total])
	dst[0] = s.FirstChannel&subsetFirstChannelMask |
		byte(code)<<subsetResolutionShift
	for i, v := range s.Channels[:s.Count] {
		writeBits(dst[1:], uint(i)*uint(s.Resolution), uint(s.Resolution), v)
	}
	return total, nil
}

func decodeSubsetRCChannels(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeSubsetRCChannels, p)
	}
	cfg := p[0]
	s := &SubsetRCChannels{
		FirstChannel: cfg & subsetFirstChannelMask,
		Resolution:   subsetResolutionBits[cfg>>subsetResolutionShift&subsetResolutionMask],
	}
	count := (len(p) - 1) * 8 / int(s.Resolution)
	if count == 0 {
		return nil, malformed(TypeSubsetRCChannels, p)
	}
	if count > ChannelCount {
		count = ChannelCount
	}
	s.Count = uint8(count)
	for i := 0; i < count; i++ {
		s.Channels[i] = readBits(p[1:], uint(i)*uint(s.Resolution), uint(s.Resolution))
	}
	return s, nil
}
