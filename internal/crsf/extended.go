package crsf

import (
	"bytes"
	"encoding/binary"
)

// Extended-addressed packets (type codes 0x28 and up, plus the historical
// outliers 0x80/0xAA/0xAC). These carry destination and origin device
// addresses at the front of the payload; the MAVLink envelope is the one
// type in the range that does not.

// DevicePing asks all devices on the bus to identify themselves
// (type 0x28).
type DevicePing struct {
	Dst Address
	Src Address
}

func (*DevicePing) Type() FrameType { return TypeDevicePing }

func (d *DevicePing) appendPayload(dst []byte) (int, error) {
	dst[0] = byte(d.Dst)
	dst[1] = byte(d.Src)
	return 2, nil
}

func decodeDevicePing(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeDevicePing, p)
	}
	return &DevicePing{Dst: Address(p[0]), Src: Address(p[1])}, nil
}

// maxDeviceNameLen bounds the NUL-terminated device name so the fixed tail
// still fits a max payload.
const maxDeviceNameLen = MaxPayload - 2 - 1 - 14

// DeviceInfo is a device's answer to a ping (type 0x29): a NUL-terminated
// display name followed by serial number, hardware and firmware versions
// and the parameter inventory.
type DeviceInfo struct {
	Dst              Address
	Src              Address
	Name             [maxDeviceNameLen]byte
	NameLen          uint8
	SerialNumber     uint32
	HardwareID       uint32
	FirmwareID       uint32
	ParameterTotal   uint8
	ParameterVersion uint8
}

// deviceInfoTailLen is everything after the name's NUL terminator.
const deviceInfoTailLen = 14

func (d *DeviceInfo) DeviceName() string { return string(d.Name[:d.NameLen]) }

func (*DeviceInfo) Type() FrameType { return TypeDeviceInfo }

func (d *DeviceInfo) appendPayload(dst []byte) (int, error) {
	if int(d.NameLen) > maxDeviceNameLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(d.Dst)
	dst[1] = byte(d.Src)
	i := 2 + copy(dst[2:], d.Name[:d.NameLen])
	dst[i] = 0
	i++
	binary.BigEndian.PutUint32(dst[i:i+4], d.SerialNumber)
	binary.BigEndian.PutUint32(dst[i+4:i+8], d.HardwareID)
	binary.BigEndian.PutUint32(dst[i+8:i+12], d.FirmwareID)
	dst[i+12] = d.ParameterTotal
	dst[i+13] = d.ParameterVersion
	return i + deviceInfoTailLen, nil
}

func decodeDeviceInfo(p []byte) (Packet, error) {
	if len(p) < 2+1+deviceInfoTailLen {
		return nil, malformed(TypeDeviceInfo, p)
	}
	nul := bytes.IndexByte(p[2:], 0)
	if nul < 0 || len(p) < 2+nul+1+deviceInfoTailLen {
		return nil, malformed(TypeDeviceInfo, p)
	}
	d := &DeviceInfo{Dst: Address(p[0]), Src: Address(p[1])}
	d.NameLen = uint8(copy(d.Name[:], p[2:2+nul]))
	tail := p[2+nul+1:]
	d.SerialNumber = binary.BigEndian.Uint32(tail[0:4])
	d.HardwareID = binary.BigEndian.Uint32(tail[4:8])
	d.FirmwareID = binary.BigEndian.Uint32(tail[8:12])
	d.ParameterTotal = tail[12]
	d.ParameterVersion = tail[13]
	return d, nil
}

// maxParameterChunkLen bounds a settings chunk within a max payload.
const maxParameterChunkLen = MaxPayload - 4

// ParameterSettingsEntry is one chunk of a parameter description
// (type 0x2B). Long descriptions arrive as a countdown of chunks.
type ParameterSettingsEntry struct {
	Dst             Address
	Src             Address
	Number          uint8
	ChunksRemaining uint8
	Chunk           [maxParameterChunkLen]byte
	ChunkLen        uint8
}

func (*ParameterSettingsEntry) Type() FrameType { return TypeParameterSettingsEntry }

func (e *ParameterSettingsEntry) appendPayload(dst []byte) (int, error) {
	if int(e.ChunkLen) > maxParameterChunkLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(e.Dst)
	dst[1] = byte(e.Src)
	dst[2] = e.Number
	dst[3] = e.ChunksRemaining
	return 4 + copy(dst[4:], e.Chunk[:e.ChunkLen]), nil
}

func decodeParameterSettingsEntry(p []byte) (Packet, error) {
	if len(p) < 4 {
		return nil, malformed(TypeParameterSettingsEntry, p)
	}
	e := &ParameterSettingsEntry{
		Dst:             Address(p[0]),
		Src:             Address(p[1]),
		Number:          p[2],
		ChunksRemaining: p[3],
	}
	e.ChunkLen = uint8(copy(e.Chunk[:], p[4:]))
	return e, nil
}

// ParameterRead requests one chunk of a parameter description (type 0x2C).
type ParameterRead struct {
	Dst    Address
	Src    Address
	Number uint8
	Chunk  uint8
}

func (*ParameterRead) Type() FrameType { return TypeParameterRead }

func (r *ParameterRead) appendPayload(dst []byte) (int, error) {
	dst[0] = byte(r.Dst)
	dst[1] = byte(r.Src)
	dst[2] = r.Number
	dst[3] = r.Chunk
	return 4, nil
}

func decodeParameterRead(p []byte) (Packet, error) {
	if len(p) < 4 {
		return nil, malformed(TypeParameterRead, p)
	}
	return &ParameterRead{
		Dst:    Address(p[0]),
		Src:    Address(p[1]),
		Number: p[2],
		Chunk:  p[3],
	}, nil
}

// maxParameterDataLen bounds a write value within a max payload.
const maxParameterDataLen = MaxPayload - 3

// ParameterWrite sets a parameter's value (type 0x2D). The value encoding
// depends on the parameter's declared type, so it is carried opaque.
type ParameterWrite struct {
	Dst     Address
	Src     Address
	Number  uint8
	Data    [maxParameterDataLen]byte
	DataLen uint8
}

func (*ParameterWrite) Type() FrameType { return TypeParameterWrite }

func (w *ParameterWrite) appendPayload(dst []byte) (int, error) {
	if int(w.DataLen) > maxParameterDataLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(w.Dst)
	dst[1] = byte(w.Src)
	dst[2] = w.Number
	return 3 + copy(dst[3:], w.Data[:w.DataLen]), nil
}

func decodeParameterWrite(p []byte) (Packet, error) {
	if len(p) < 3 {
		return nil, malformed(TypeParameterWrite, p)
	}
	w := &ParameterWrite{Dst: Address(p[0]), Src: Address(p[1]), Number: p[2]}
	w.DataLen = uint8(copy(w.Data[:], p[3:]))
	return w, nil
}

// maxCommandPayloadLen bounds the command body: headers, command id and the
// inner CRC all share the max payload.
const maxCommandPayloadLen = MaxPayload - 4

// DirectCommand is a command frame (type 0x32). The payload ends with an
// inner CRC-8 (polynomial 0xBA) computed over the frame type byte, the
// addresses, the command id and the body. Decode validates and strips it;
// encode appends it.
type DirectCommand struct {
	Dst        Address
	Src        Address
	Command    uint8
	Payload    [maxCommandPayloadLen]byte
	PayloadLen uint8
}

func (*DirectCommand) Type() FrameType { return TypeDirectCommand }

func (c *DirectCommand) appendPayload(dst []byte) (int, error) {
	if int(c.PayloadLen) > maxCommandPayloadLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(c.Dst)
	dst[1] = byte(c.Src)
	dst[2] = c.Command
	n := 3 + copy(dst[3:], c.Payload[:c.PayloadLen])
	inner := crc8Command([]byte{byte(TypeDirectCommand)})
	for _, b := range dst[:n] {
		inner = crcTableBA[inner^b]
	}
	dst[n] = inner
	return n + 1, nil
}

func decodeDirectCommand(p []byte) (Packet, error) {
	if len(p) < 4 {
		return nil, malformed(TypeDirectCommand, p)
	}
	inner := crc8Command([]byte{byte(TypeDirectCommand)})
	for _, b := range p[:len(p)-1] {
		inner = crcTableBA[inner^b]
	}
	if inner != p[len(p)-1] {
		return nil, malformed(TypeDirectCommand, p)
	}
	c := &DirectCommand{Dst: Address(p[0]), Src: Address(p[1]), Command: p[2]}
	c.PayloadLen = uint8(copy(c.Payload[:], p[3:len(p)-1]))
	return c, nil
}

// maxLoggingParams bounds the parameter list within a max payload.
const maxLoggingParams = 13

// Logging is a structured log event (type 0x34): a log type, a timestamp
// and up to 13 32-bit parameters.
type Logging struct {
	Dst        Address
	Src        Address
	LogType    uint16
	Timestamp  uint32
	Params     [maxLoggingParams]uint32
	ParamCount uint8
}

const loggingHeaderLen = 8

func (*Logging) Type() FrameType { return TypeLogging }

func (l *Logging) appendPayload(dst []byte) (int, error) {
	if int(l.ParamCount) > maxLoggingParams {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(l.Dst)
	dst[1] = byte(l.Src)
	binary.BigEndian.PutUint16(dst[2:4], l.LogType)
	binary.BigEndian.PutUint32(dst[4:8], l.Timestamp)
	i := loggingHeaderLen
	for _, v := range l.Params[:l.ParamCount] {
		binary.BigEndian.PutUint32(dst[i:i+4], v)
		i += 4
	}
	return i, nil
}

func decodeLogging(p []byte) (Packet, error) {
	if len(p) < loggingHeaderLen || (len(p)-loggingHeaderLen)%4 != 0 {
		return nil, malformed(TypeLogging, p)
	}
	n := (len(p) - loggingHeaderLen) / 4
	if n > maxLoggingParams {
		return nil, malformed(TypeLogging, p)
	}
	l := &Logging{
		Dst:        Address(p[0]),
		Src:        Address(p[1]),
		LogType:    binary.BigEndian.Uint16(p[2:4]),
		Timestamp:  binary.BigEndian.Uint32(p[4:8]),
		ParamCount: uint8(n),
	}
	for i := 0; i < n; i++ {
		l.Params[i] = binary.BigEndian.Uint32(p[loggingHeaderLen+4*i:])
	}
	return l, nil
}

// remoteSubtypeTimingCorrection is the one remote-related subtype in use.
const remoteSubtypeTimingCorrection = 0x10

// TimingCorrection tells the handset how to shift its frame timing
// (type 0x3A, subtype 0x10).
type TimingCorrection struct {
	Dst            Address
	Src            Address
	UpdateInterval uint32 // 100ns units
	Offset         int32  // 100ns units, positive means late
}

const timingCorrectionLen = 11

func (*TimingCorrection) Type() FrameType { return TypeRemoteRelated }

func (t *TimingCorrection) appendPayload(dst []byte) (int, error) {
	dst[0] = byte(t.Dst)
	dst[1] = byte(t.Src)
	dst[2] = remoteSubtypeTimingCorrection
	binary.BigEndian.PutUint32(dst[3:7], t.UpdateInterval)
	binary.BigEndian.PutUint32(dst[7:11], uint32(t.Offset))
	return timingCorrectionLen, nil
}

func decodeTimingCorrection(p []byte) (Packet, error) {
	if len(p) < timingCorrectionLen || p[2] != remoteSubtypeTimingCorrection {
		return nil, malformed(TypeRemoteRelated, p)
	}
	return &TimingCorrection{
		Dst:            Address(p[0]),
		Src:            Address(p[1]),
		UpdateInterval: binary.BigEndian.Uint32(p[3:7]),
		Offset:         int32(binary.BigEndian.Uint32(p[7:11])),
	}, nil
}

// Game subtypes.
const (
	GameSubtypeAddPoints   = 0x01
	GameSubtypeCommandCode = 0x02
)

// Game is a race-game event (type 0x3C). AddPoints carries a signed point
// delta; CommandCode carries an opaque code. Value holds the raw 16-bit
// field; Points interprets it for the AddPoints subtype.
type Game struct {
	Dst     Address
	Src     Address
	Subtype uint8
	Value   uint16
}

const gameLen = 5

// Points returns the signed point delta of an AddPoints event.
func (g *Game) Points() int16 { return int16(g.Value) }

func (*Game) Type() FrameType { return TypeGame }

func (g *Game) appendPayload(dst []byte) (int, error) {
	if g.Subtype != GameSubtypeAddPoints && g.Subtype != GameSubtypeCommandCode {
		return 0, ErrMalformed
	}
	dst[0] = byte(g.Dst)
	dst[1] = byte(g.Src)
	dst[2] = g.Subtype
	binary.BigEndian.PutUint16(dst[3:5], g.Value)
	return gameLen, nil
}

func decodeGame(p []byte) (Packet, error) {
	if len(p) < gameLen {
		return nil, malformed(TypeGame, p)
	}
	if p[2] != GameSubtypeAddPoints && p[2] != GameSubtypeCommandCode {
		return nil, malformed(TypeGame, p)
	}
	return &Game{
		Dst:     Address(p[0]),
		Src:     Address(p[1]),
		Subtype: p[2],
		Value:   binary.BigEndian.Uint16(p[3:5]),
	}, nil
}

// maxArdupilotDataLen bounds the passthrough body within a max payload.
const maxArdupilotDataLen = MaxPayload - 2

// Ardupilot is the ArduPilot passthrough frame (type 0x80). The body is
// vendor-defined and carried opaque.
type Ardupilot struct {
	Dst     Address
	Src     Address
	Data    [maxArdupilotDataLen]byte
	DataLen uint8
}

func (*Ardupilot) Type() FrameType { return TypeArdupilot }

func (a *Ardupilot) appendPayload(dst []byte) (int, error) {
	if int(a.DataLen) > maxArdupilotDataLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = byte(a.Dst)
	dst[1] = byte(a.Src)
	return 2 + copy(dst[2:], a.Data[:a.DataLen]), nil
}

func decodeArdupilot(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeArdupilot, p)
	}
	a := &Ardupilot{Dst: Address(p[0]), Src: Address(p[1])}
	a.DataLen = uint8(copy(a.Data[:], p[2:]))
	return a, nil
}

// maxMAVLinkChunkLen bounds an envelope chunk within a max payload.
const maxMAVLinkChunkLen = MaxPayload - 2

// MAVLinkEnvelope tunnels a chunk of a MAVLink message (type 0xAA). Unlike
// the rest of the extended range it carries no destination or origin: the
// first byte packs the total and current chunk counts as two nibbles, the
// second is the chunk size.
type MAVLinkEnvelope struct {
	TotalChunks  uint8 // 4 bits on the wire
	CurrentChunk uint8 // 4 bits on the wire
	Data         [maxMAVLinkChunkLen]byte
	DataLen      uint8
}

func (*MAVLinkEnvelope) Type() FrameType { return TypeMAVLinkEnvelope }

func (m *MAVLinkEnvelope) appendPayload(dst []byte) (int, error) {
	if int(m.DataLen) > maxMAVLinkChunkLen {
		return 0, ErrBufferTooSmall
	}
	dst[0] = m.TotalChunks<<4 | m.CurrentChunk&0x0F
	dst[1] = m.DataLen
	return 2 + copy(dst[2:], m.Data[:m.DataLen]), nil
}

func decodeMAVLinkEnvelope(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeMAVLinkEnvelope, p)
	}
	size := int(p[1])
	if size > len(p)-2 || size > maxMAVLinkChunkLen {
		return nil, malformed(TypeMAVLinkEnvelope, p)
	}
	m := &MAVLinkEnvelope{
		TotalChunks:  p[0] >> 4,
		CurrentChunk: p[0] & 0x0F,
		DataLen:      uint8(size),
	}
	copy(m.Data[:], p[2:2+size])
	return m, nil
}

// MAVLinkStatus mirrors the MAVLink SYS_STATUS sensor bitmasks
// (type 0xAC).
type MAVLinkStatus struct {
	Dst           Address
	Src           Address
	SensorPresent uint32
	SensorEnabled uint32
	SensorHealth  uint32
}

const mavlinkStatusLen = 14

func (*MAVLinkStatus) Type() FrameType { return TypeMAVLinkStatus }

func (m *MAVLinkStatus) appendPayload(dst []byte) (int, error) {
	dst[0] = byte(m.Dst)
	dst[1] = byte(m.Src)
	binary.BigEndian.PutUint32(dst[2:6], m.SensorPresent)
	binary.BigEndian.PutUint32(dst[6:10], m.SensorEnabled)
	binary.BigEndian.PutUint32(dst[10:14], m.SensorHealth)
	return mavlinkStatusLen, nil
}

func decodeMAVLinkStatus(p []byte) (Packet, error) {
	if len(p) < mavlinkStatusLen {
		return nil, malformed(TypeMAVLinkStatus, p)
	}
	return &MAVLinkStatus{
		Dst:           Address(p[0]),
		Src:           Address(p[1]),
		SensorPresent: binary.BigEndian.Uint32(p[2:6]),
		SensorEnabled: binary.BigEndian.Uint32(p[6:10]),
		SensorHealth:  binary.BigEndian.Uint32(p[10:14]),
	}, nil
}
