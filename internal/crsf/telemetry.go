package crsf

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Broadcast telemetry packets. All multi-byte scalars are big-endian on the
// wire. Field comments give the wire unit where one exists.

// GPS is a position fix (type 0x02). The wire layout is 16 bytes with byte
// 14 unused.
type GPS struct {
	Latitude    int32  // degree / 10_000_000
	Longitude   int32  // degree / 10_000_000
	GroundSpeed uint16 // km/h / 100
	Heading     uint16 // degree / 100
	Altitude    uint16 // meters, +1000m offset
	Satellites  uint8
}

const gpsLen = 16

func (*GPS) Type() FrameType { return TypeGPS }

func (g *GPS) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint32(dst[0:4], uint32(g.Latitude))
	binary.BigEndian.PutUint32(dst[4:8], uint32(g.Longitude))
	binary.BigEndian.PutUint16(dst[8:10], g.GroundSpeed)
	binary.BigEndian.PutUint16(dst[10:12], g.Heading)
	binary.BigEndian.PutUint16(dst[12:14], g.Altitude)
	dst[14] = 0
	dst[15] = g.Satellites
	return gpsLen, nil
}

func decodeGPS(p []byte) (Packet, error) {
	if len(p) < gpsLen {
		return nil, malformed(TypeGPS, p)
	}
	return &GPS{
		Latitude:    int32(binary.BigEndian.Uint32(p[0:4])),
		Longitude:   int32(binary.BigEndian.Uint32(p[4:8])),
		GroundSpeed: binary.BigEndian.Uint16(p[8:10]),
		Heading:     binary.BigEndian.Uint16(p[10:12]),
		Altitude:    binary.BigEndian.Uint16(p[12:14]),
		Satellites:  p[15],
	}, nil
}

// GPSTime is a UTC timestamp for synchronization (type 0x03).
type GPSTime struct {
	Year        int16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Second      uint8
	Millisecond uint16
}

const gpsTimeLen = 9

func (*GPSTime) Type() FrameType { return TypeGPSTime }

func (g *GPSTime) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(g.Year))
	dst[2] = g.Month
	dst[3] = g.Day
	dst[4] = g.Hour
	dst[5] = g.Minute
	dst[6] = g.Second
	binary.BigEndian.PutUint16(dst[7:9], g.Millisecond)
	return gpsTimeLen, nil
}

func decodeGPSTime(p []byte) (Packet, error) {
	if len(p) < gpsTimeLen {
		return nil, malformed(TypeGPSTime, p)
	}
	return &GPSTime{
		Year:        int16(binary.BigEndian.Uint16(p[0:2])),
		Month:       p[2],
		Day:         p[3],
		Hour:        p[4],
		Minute:      p[5],
		Second:      p[6],
		Millisecond: binary.BigEndian.Uint16(p[7:9]),
	}, nil
}

// GPSExtended carries velocity and accuracy detail (type 0x06).
type GPSExtended struct {
	FixType      uint8
	NSpeed       int16 // cm/s
	ESpeed       int16 // cm/s
	VSpeed       int16 // cm/s
	HSpeedAcc    int16 // cm/s
	TrackAcc     int16 // degree / 10
	AltEllipsoid int16 // meters
	HAcc         int16 // cm
	VAcc         int16 // cm
	Reserved     uint8
	HDOP         uint8
	VDOP         uint8
}

const gpsExtendedLen = 20

func (*GPSExtended) Type() FrameType { return TypeGPSExtended }

func (g *GPSExtended) appendPayload(dst []byte) (int, error) {
	dst[0] = g.FixType
	binary.BigEndian.PutUint16(dst[1:3], uint16(g.NSpeed))
	binary.BigEndian.PutUint16(dst[3:5], uint16(g.ESpeed))
	binary.BigEndian.PutUint16(dst[5:7], uint16(g.VSpeed))
	binary.BigEndian.PutUint16(dst[7:9], uint16(g.HSpeedAcc))
	binary.BigEndian.PutUint16(dst[9:11], uint16(g.TrackAcc))
	binary.BigEndian.PutUint16(dst[11:13], uint16(g.AltEllipsoid))
	binary.BigEndian.PutUint16(dst[13:15], uint16(g.HAcc))
	binary.BigEndian.PutUint16(dst[15:17], uint16(g.VAcc))
	dst[17] = g.Reserved
	dst[18] = g.HDOP
	dst[19] = g.VDOP
	return gpsExtendedLen, nil
}

func decodeGPSExtended(p []byte) (Packet, error) {
	if len(p) < gpsExtendedLen {
		return nil, malformed(TypeGPSExtended, p)
	}
	return &GPSExtended{
		FixType:      p[0],
		NSpeed:       int16(binary.BigEndian.Uint16(p[1:3])),
		ESpeed:       int16(binary.BigEndian.Uint16(p[3:5])),
		VSpeed:       int16(binary.BigEndian.Uint16(p[5:7])),
		HSpeedAcc:    int16(binary.BigEndian.Uint16(p[7:9])),
		TrackAcc:     int16(binary.BigEndian.Uint16(p[9:11])),
		AltEllipsoid: int16(binary.BigEndian.Uint16(p[11:13])),
		HAcc:         int16(binary.BigEndian.Uint16(p[13:15])),
		VAcc:         int16(binary.BigEndian.Uint16(p[15:17])),
		Reserved:     p[17],
		HDOP:         p[18],
		VDOP:         p[19],
	}, nil
}

// Vario is vertical speed (type 0x07).
type Vario struct {
	VerticalSpeed int16 // cm/s
}

func (*Vario) Type() FrameType { return TypeVario }

func (v *Vario) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(v.VerticalSpeed))
	return 2, nil
}

func decodeVario(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeVario, p)
	}
	return &Vario{VerticalSpeed: int16(binary.BigEndian.Uint16(p[0:2]))}, nil
}

// Battery is a battery sensor reading (type 0x08).
type Battery struct {
	Voltage      int16  // dV
	Current      int16  // dA
	CapacityUsed uint32 // mAh, 24 bits on the wire
	Remaining    uint8  // percent
}

const batteryLen = 8

func (*Battery) Type() FrameType { return TypeBattery }

func (b *Battery) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(b.Voltage))
	binary.BigEndian.PutUint16(dst[2:4], uint16(b.Current))
	dst[4] = byte(b.CapacityUsed >> 16)
	dst[5] = byte(b.CapacityUsed >> 8)
	dst[6] = byte(b.CapacityUsed)
	dst[7] = b.Remaining
	return batteryLen, nil
}

func decodeBattery(p []byte) (Packet, error) {
	if len(p) < batteryLen {
		return nil, malformed(TypeBattery, p)
	}
	return &Battery{
		Voltage:      int16(binary.BigEndian.Uint16(p[0:2])),
		Current:      int16(binary.BigEndian.Uint16(p[2:4])),
		CapacityUsed: uint32(p[4])<<16 | uint32(p[5])<<8 | uint32(p[6]),
		Remaining:    p[7],
	}, nil
}

// BaroAltitude is barometric altitude plus vertical speed in their packed
// wire encodings (type 0x09). The packing helpers below convert to and
// from engineering units.
type BaroAltitude struct {
	AltitudePacked      uint16
	VerticalSpeedPacked int8
}

const baroAltitudeLen = 3

// Vertical speed packing constants: value = ln(|v|/kl + 1) / kr, signed.
const (
	baroKL = 100.0
	baroKR = 0.026
)

func (*BaroAltitude) Type() FrameType { return TypeBaroAltitude }

func (b *BaroAltitude) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], b.AltitudePacked)
	dst[2] = byte(b.VerticalSpeedPacked)
	return baroAltitudeLen, nil
}

func decodeBaroAltitude(p []byte) (Packet, error) {
	if len(p) < baroAltitudeLen {
		return nil, malformed(TypeBaroAltitude, p)
	}
	return &BaroAltitude{
		AltitudePacked:      binary.BigEndian.Uint16(p[0:2]),
		VerticalSpeedPacked: int8(p[2]),
	}, nil
}

// AltitudeDm unpacks the altitude to decimeters. MSB set means the value is
// whole meters with no offset; MSB clear means decimeters with a -1000m
// offset.
func (b *BaroAltitude) AltitudeDm() int32 {
	if b.AltitudePacked&0x8000 != 0 {
		return int32(b.AltitudePacked&0x7FFF) * 10
	}
	return int32(b.AltitudePacked) - 10000
}

// PackAltitudeDm packs an altitude in decimeters, clamping to the
// representable range and switching to meter resolution above the
// decimeter ceiling.
func PackAltitudeDm(altitudeDm int32) uint16 {
	const (
		altMinDm       = 10000
		altThresholdDm = 0x8000 - altMinDm
		altMaxDm       = 0x7FFE*10 - 5
	)
	switch {
	case altitudeDm < -altMinDm:
		return 0
	case altitudeDm > altMaxDm:
		return 0xFFFE
	case altitudeDm < altThresholdDm:
		return uint16(altitudeDm + altMinDm)
	default:
		return uint16((altitudeDm+5)/10) | 0x8000
	}
}

// VerticalSpeedCmS unpacks the log-scaled vertical speed to cm/s.
func (b *BaroAltitude) VerticalSpeedCmS() int16 {
	v := b.VerticalSpeedPacked
	sign := int16(1)
	if v < 0 {
		sign = -1
		v = -v
	}
	return sign * int16((math.Exp(float64(v)*baroKR)-1)*baroKL)
}

// PackVerticalSpeedCmS packs a vertical speed in cm/s into the log-scaled
// wire byte.
func PackVerticalSpeedCmS(cmS int16) int8 {
	sign := 1.0
	v := cmS
	if v < 0 {
		sign = -1
		v = -v
	}
	return int8(math.Log(float64(v)/baroKL+1) / baroKR * sign)
}

// Airspeed is indicated airspeed (type 0x0A).
type Airspeed struct {
	Speed uint16 // km/h / 10
}

func (*Airspeed) Type() FrameType { return TypeAirspeed }

func (a *Airspeed) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], a.Speed)
	return 2, nil
}

func decodeAirspeed(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeAirspeed, p)
	}
	return &Airspeed{Speed: binary.BigEndian.Uint16(p[0:2])}, nil
}

// Heartbeat announces a device's presence (type 0x0B).
type Heartbeat struct {
	Origin int16 // device address of the sender
}

func (*Heartbeat) Type() FrameType { return TypeHeartbeat }

func (h *Heartbeat) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(h.Origin))
	return 2, nil
}

func decodeHeartbeat(p []byte) (Packet, error) {
	if len(p) < 2 {
		return nil, malformed(TypeHeartbeat, p)
	}
	return &Heartbeat{Origin: int16(binary.BigEndian.Uint16(p[0:2]))}, nil
}

// maxRPMValues bounds the value list so a max-size payload fits.
const maxRPMValues = 19

// RPM carries rotation sources as 24-bit signed values (type 0x0C).
type RPM struct {
	SourceID uint8
	Values   [maxRPMValues]int32
	Count    uint8
}

func (*RPM) Type() FrameType { return TypeRPM }

func (r *RPM) appendPayload(dst []byte) (int, error) {
	if int(r.Count) > maxRPMValues {
		return 0, ErrBufferTooSmall
	}
	dst[0] = r.SourceID
	i := 1
	for _, v := range r.Values[:r.Count] {
		dst[i] = byte(v >> 16)
		dst[i+1] = byte(v >> 8)
		dst[i+2] = byte(v)
		i += 3
	}
	return i, nil
}

func decodeRPM(p []byte) (Packet, error) {
	if len(p) < 3 {
		return nil, malformed(TypeRPM, p)
	}
	r := &RPM{SourceID: p[0]}
	for i := 1; i+3 <= len(p) && r.Count < maxRPMValues; i += 3 {
		v := uint32(p[i])<<16 | uint32(p[i+1])<<8 | uint32(p[i+2])
		r.Values[r.Count] = int32(v<<8) >> 8 // sign-extend 24 bits
		r.Count++
	}
	return r, nil
}

// maxTemperatures bounds the reading list so a max-size payload fits.
const maxTemperatures = 20

// Temperature carries temperature readings in deci-degrees Celsius
// (type 0x0D).
type Temperature struct {
	SourceID     uint8
	Temperatures [maxTemperatures]int16
	Count        uint8
}

func (*Temperature) Type() FrameType { return TypeTemperature }

func (t *Temperature) appendPayload(dst []byte) (int, error) {
	if int(t.Count) > maxTemperatures {
		return 0, ErrBufferTooSmall
	}
	dst[0] = t.SourceID
	i := 1
	for _, v := range t.Temperatures[:t.Count] {
		binary.BigEndian.PutUint16(dst[i:i+2], uint16(v))
		i += 2
	}
	return i, nil
}

func decodeTemperature(p []byte) (Packet, error) {
	if len(p) < 3 {
		return nil, malformed(TypeTemperature, p)
	}
	t := &Temperature{SourceID: p[0]}
	for i := 1; i+2 <= len(p) && t.Count < maxTemperatures; i += 2 {
		t.Temperatures[t.Count] = int16(binary.BigEndian.Uint16(p[i : i+2]))
		t.Count++
	}
	return t, nil
}

// maxVoltageValues bounds the cell list so a max-size payload fits.
const maxVoltageValues = 29

// Voltages carries per-cell voltages in millivolts (type 0x0E).
type Voltages struct {
	SourceID uint8
	Values   [maxVoltageValues]uint16
	Count    uint8
}

func (*Voltages) Type() FrameType { return TypeVoltages }

func (v *Voltages) appendPayload(dst []byte) (int, error) {
	if int(v.Count) > maxVoltageValues {
		return 0, ErrBufferTooSmall
	}
	dst[0] = v.SourceID
	i := 1
	for _, val := range v.Values[:v.Count] {
		binary.BigEndian.PutUint16(dst[i:i+2], val)
		i += 2
	}
	return i, nil
}

func decodeVoltages(p []byte) (Packet, error) {
	if len(p) < 3 {
		return nil, malformed(TypeVoltages, p)
	}
	v := &Voltages{SourceID: p[0]}
	for i := 1; i+2 <= len(p) && v.Count < maxVoltageValues; i += 2 {
		v.Values[v.Count] = binary.BigEndian.Uint16(p[i : i+2])
		v.Count++
	}
	return v, nil
}

// VTXTelemetry reports video transmitter link state (type 0x10).
type VTXTelemetry struct {
	UpRSSIAnt1      uint8
	UpRSSIAnt2      uint8
	UpLinkQuality   uint8
	UpSNR           int8
	ActiveAntenna   uint8
	RFProfile       uint8
	UpRFPower       uint8
	DownRSSI        uint8
	DownLinkQuality uint8
	DownSNR         int8
}

const vtxTelemetryLen = 10

func (*VTXTelemetry) Type() FrameType { return TypeVTXTelemetry }

func (v *VTXTelemetry) appendPayload(dst []byte) (int, error) {
	dst[0] = v.UpRSSIAnt1
	dst[1] = v.UpRSSIAnt2
	dst[2] = v.UpLinkQuality
	dst[3] = byte(v.UpSNR)
	dst[4] = v.ActiveAntenna
	dst[5] = v.RFProfile
	dst[6] = v.UpRFPower
	dst[7] = v.DownRSSI
	dst[8] = v.DownLinkQuality
	dst[9] = byte(v.DownSNR)
	return vtxTelemetryLen, nil
}

func decodeVTXTelemetry(p []byte) (Packet, error) {
	if len(p) < vtxTelemetryLen {
		return nil, malformed(TypeVTXTelemetry, p)
	}
	return &VTXTelemetry{
		UpRSSIAnt1:      p[0],
		UpRSSIAnt2:      p[1],
		UpLinkQuality:   p[2],
		UpSNR:           int8(p[3]),
		ActiveAntenna:   p[4],
		RFProfile:       p[5],
		UpRFPower:       p[6],
		DownRSSI:        p[7],
		DownLinkQuality: p[8],
		DownSNR:         int8(p[9]),
	}, nil
}

// LinkStatistics reports signal quality for both link directions
// (type 0x14).
type LinkStatistics struct {
	UplinkRSSI1         uint8 // -dBm
	UplinkRSSI2         uint8 // -dBm
	UplinkLinkQuality   uint8 // percent
	UplinkSNR           int8  // dB
	ActiveAntenna       uint8
	RFMode              uint8
	UplinkTXPower       uint8 // enumerated
	DownlinkRSSI        uint8 // -dBm
	DownlinkLinkQuality uint8 // percent
	DownlinkSNR         int8  // dB
}

const linkStatisticsLen = 10

func (*LinkStatistics) Type() FrameType { return TypeLinkStatistics }

func (l *LinkStatistics) appendPayload(dst []byte) (int, error) {
	dst[0] = l.UplinkRSSI1
	dst[1] = l.UplinkRSSI2
	dst[2] = l.UplinkLinkQuality
	dst[3] = byte(l.UplinkSNR)
	dst[4] = l.ActiveAntenna
	dst[5] = l.RFMode
	dst[6] = l.UplinkTXPower
	dst[7] = l.DownlinkRSSI
	dst[8] = l.DownlinkLinkQuality
	dst[9] = byte(l.DownlinkSNR)
	return linkStatisticsLen, nil
}

func decodeLinkStatistics(p []byte) (Packet, error) {
	if len(p) < linkStatisticsLen {
		return nil, malformed(TypeLinkStatistics, p)
	}
	return &LinkStatistics{
		UplinkRSSI1:         p[0],
		UplinkRSSI2:         p[1],
		UplinkLinkQuality:   p[2],
		UplinkSNR:           int8(p[3]),
		ActiveAntenna:       p[4],
		RFMode:              p[5],
		UplinkTXPower:       p[6],
		DownlinkRSSI:        p[7],
		DownlinkLinkQuality: p[8],
		DownlinkSNR:         int8(p[9]),
	}, nil
}

// LinkStatisticsRX is the receiver-side link report (type 0x1C).
type LinkStatisticsRX struct {
	RSSIDb      uint8
	RSSIPercent uint8
	LinkQuality uint8
	SNR         int8
	RFPowerDb   uint8
}

const linkStatisticsRXLen = 5

func (*LinkStatisticsRX) Type() FrameType { return TypeLinkStatisticsRX }

func (l *LinkStatisticsRX) appendPayload(dst []byte) (int, error) {
	dst[0] = l.RSSIDb
	dst[1] = l.RSSIPercent
	dst[2] = l.LinkQuality
	dst[3] = byte(l.SNR)
	dst[4] = l.RFPowerDb
	return linkStatisticsRXLen, nil
}

func decodeLinkStatisticsRX(p []byte) (Packet, error) {
	if len(p) < linkStatisticsRXLen {
		return nil, malformed(TypeLinkStatisticsRX, p)
	}
	return &LinkStatisticsRX{
		RSSIDb:      p[0],
		RSSIPercent: p[1],
		LinkQuality: p[2],
		SNR:         int8(p[3]),
		RFPowerDb:   p[4],
	}, nil
}

// LinkStatisticsTX is the transmitter-side link report (type 0x1D).
type LinkStatisticsTX struct {
	RSSIDb      uint8
	RSSIPercent uint8
	LinkQuality uint8
	SNR         int8
	RFPowerDb   uint8
	FPS         uint8 // frames per second / 10
}

const linkStatisticsTXLen = 6

func (*LinkStatisticsTX) Type() FrameType { return TypeLinkStatisticsTX }

func (l *LinkStatisticsTX) appendPayload(dst []byte) (int, error) {
	dst[0] = l.RSSIDb
	dst[1] = l.RSSIPercent
	dst[2] = l.LinkQuality
	dst[3] = byte(l.SNR)
	dst[4] = l.RFPowerDb
	dst[5] = l.FPS
	return linkStatisticsTXLen, nil
}

func decodeLinkStatisticsTX(p []byte) (Packet, error) {
	if len(p) < linkStatisticsTXLen {
		return nil, malformed(TypeLinkStatisticsTX, p)
	}
	return &LinkStatisticsTX{
		RSSIDb:      p[0],
		RSSIPercent: p[1],
		LinkQuality: p[2],
		SNR:         int8(p[3]),
		RFPowerDb:   p[4],
		FPS:         p[5],
	}, nil
}

// Attitude is vehicle orientation in 100-microradian units (type 0x1E).
type Attitude struct {
	Pitch int16
	Roll  int16
	Yaw   int16
}

const attitudeLen = 6

func (*Attitude) Type() FrameType { return TypeAttitude }

func (a *Attitude) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(a.Pitch))
	binary.BigEndian.PutUint16(dst[2:4], uint16(a.Roll))
	binary.BigEndian.PutUint16(dst[4:6], uint16(a.Yaw))
	return attitudeLen, nil
}

func decodeAttitude(p []byte) (Packet, error) {
	if len(p) < attitudeLen {
		return nil, malformed(TypeAttitude, p)
	}
	return &Attitude{
		Pitch: int16(binary.BigEndian.Uint16(p[0:2])),
		Roll:  int16(binary.BigEndian.Uint16(p[2:4])),
		Yaw:   int16(binary.BigEndian.Uint16(p[4:6])),
	}, nil
}

// MAVLinkFC is the flight controller summary used by MAVLink-speaking
// stacks (type 0x1F).
type MAVLinkFC struct {
	Airspeed      int16
	BaseMode      uint8
	CustomMode    uint32
	AutopilotType uint8
	FirmwareType  uint8
}

const mavlinkFCLen = 9

func (*MAVLinkFC) Type() FrameType { return TypeMAVLinkFC }

func (m *MAVLinkFC) appendPayload(dst []byte) (int, error) {
	binary.BigEndian.PutUint16(dst[0:2], uint16(m.Airspeed))
	dst[2] = m.BaseMode
	binary.BigEndian.PutUint32(dst[3:7], m.CustomMode)
	dst[7] = m.AutopilotType
	dst[8] = m.FirmwareType
	return mavlinkFCLen, nil
}

func decodeMAVLinkFC(p []byte) (Packet, error) {
	if len(p) < mavlinkFCLen {
		return nil, malformed(TypeMAVLinkFC, p)
	}
	return &MAVLinkFC{
		Airspeed:      int16(binary.BigEndian.Uint16(p[0:2])),
		BaseMode:      p[2],
		CustomMode:    binary.BigEndian.Uint32(p[3:7]),
		AutopilotType: p[7],
		FirmwareType:  p[8],
	}, nil
}

// maxFlightModeLen leaves room for the NUL terminator in a max payload.
const maxFlightModeLen = MaxPayload - 1

// FlightMode is the flight mode name as a NUL-terminated string
// (type 0x21).
type FlightMode struct {
	Mode    [maxFlightModeLen]byte
	ModeLen uint8
}

// NewFlightMode builds a FlightMode from a name, truncating if needed.
func NewFlightMode(mode string) *FlightMode {
	f := &FlightMode{}
	f.ModeLen = uint8(copy(f.Mode[:], mode))
	return f
}

func (f *FlightMode) String() string { return string(f.Mode[:f.ModeLen]) }

func (*FlightMode) Type() FrameType { return TypeFlightMode }

func (f *FlightMode) appendPayload(dst []byte) (int, error) {
	n := copy(dst, f.Mode[:f.ModeLen])
	dst[n] = 0
	return n + 1, nil
}

func decodeFlightMode(p []byte) (Packet, error) {
	if len(p) < 1 {
		return nil, malformed(TypeFlightMode, p)
	}
	// Tolerate a missing terminator; take up to the first NUL.
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	f := &FlightMode{}
	f.ModeLen = uint8(copy(f.Mode[:], p))
	return f, nil
}

// ESPNow is the ESP-NOW race timing payload (type 0x22).
type ESPNow struct {
	Val1     uint8
	Val2     uint8
	Val3     [15]byte
	Val4     [15]byte
	FreeText [20]byte
}

const espNowLen = 52

func (*ESPNow) Type() FrameType { return TypeESPNow }

func (e *ESPNow) appendPayload(dst []byte) (int, error) {
	dst[0] = e.Val1
	dst[1] = e.Val2
	copy(dst[2:17], e.Val3[:])
	copy(dst[17:32], e.Val4[:])
	copy(dst[32:52], e.FreeText[:])
	return espNowLen, nil
}

func decodeESPNow(p []byte) (Packet, error) {
	if len(p) < espNowLen {
		return nil, malformed(TypeESPNow, p)
	}
	e := &ESPNow{Val1: p[0], Val2: p[1]}
	copy(e.Val3[:], p[2:17])
	copy(e.Val4[:], p[17:32])
	copy(e.FreeText[:], p[32:52])
	return e, nil
}
