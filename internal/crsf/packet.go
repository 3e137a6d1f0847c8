package crsf

import "fmt"

// Packet is one decoded CRSF payload. The set of implementations is closed;
// the unexported marshal method keeps it that way. Unrecognized type codes
// decode to *Unknown so a stream with vendor extensions still round-trips.
type Packet interface {
	// Type returns the wire type code this packet encodes as.
	Type() FrameType

	// appendPayload writes the payload bytes into dst and returns the
	// count written. dst is always MaxPayload long; a packet whose
	// encoding cannot fit returns ErrBufferTooSmall.
	appendPayload(dst []byte) (int, error)
}

// DecodePayload decodes the payload of a validated frame of type t. The
// returned packet owns all its data; payload may be reused afterwards.
// Unrecognized type codes return *Unknown with a copy of the payload.
func DecodePayload(t FrameType, payload []byte) (Packet, error) {
	switch t {
	case TypeGPS:
		return decodeGPS(payload)
	case TypeGPSTime:
		return decodeGPSTime(payload)
	case TypeGPSExtended:
		return decodeGPSExtended(payload)
	case TypeVario:
		return decodeVario(payload)
	case TypeBattery:
		return decodeBattery(payload)
	case TypeBaroAltitude:
		return decodeBaroAltitude(payload)
	case TypeAirspeed:
		return decodeAirspeed(payload)
	case TypeHeartbeat:
		return decodeHeartbeat(payload)
	case TypeRPM:
		return decodeRPM(payload)
	case TypeTemperature:
		return decodeTemperature(payload)
	case TypeVoltages:
		return decodeVoltages(payload)
	case TypeVTXTelemetry:
		return decodeVTXTelemetry(payload)
	case TypeLinkStatistics:
		return decodeLinkStatistics(payload)
	case TypeRCChannelsPacked:
		return decodeRCChannelsPacked(payload)
	case TypeSubsetRCChannels:
		return decodeSubsetRCChannels(payload)
	case TypeLinkStatisticsRX:
		return decodeLinkStatisticsRX(payload)
	case TypeLinkStatisticsTX:
		return decodeLinkStatisticsTX(payload)
	case TypeAttitude:
		return decodeAttitude(payload)
	case TypeMAVLinkFC:
		return decodeMAVLinkFC(payload)
	case TypeFlightMode:
		return decodeFlightMode(payload)
	case TypeESPNow:
		return decodeESPNow(payload)
	case TypeDevicePing:
		return decodeDevicePing(payload)
	case TypeDeviceInfo:
		return decodeDeviceInfo(payload)
	case TypeParameterSettingsEntry:
		return decodeParameterSettingsEntry(payload)
	case TypeParameterRead:
		return decodeParameterRead(payload)
	case TypeParameterWrite:
		return decodeParameterWrite(payload)
	case TypeDirectCommand:
		return decodeDirectCommand(payload)
	case TypeLogging:
		return decodeLogging(payload)
	case TypeRemoteRelated:
		return decodeTimingCorrection(payload)
	case TypeGame:
		return decodeGame(payload)
	case TypeArdupilot:
		return decodeArdupilot(payload)
	case TypeMAVLinkEnvelope:
		return decodeMAVLinkEnvelope(payload)
	case TypeMAVLinkStatus:
		return decodeMAVLinkStatus(payload)
	default:
		u := &Unknown{FrameType: t}
		u.PayloadLen = uint8(copy(u.Payload[:], payload))
		return u, nil
	}
}

// Encode writes a complete wire frame for pkt into out: address, length,
// type, payload, CRC. It returns the total bytes written. If out cannot
// hold the frame, nothing is written and ErrBufferTooSmall is returned.
func Encode(addr Address, pkt Packet, out []byte) (int, error) {
	var body [MaxPayload]byte
	n, err := pkt.appendPayload(body[:])
	if err != nil {
		return 0, err
	}
	total := n + 4
	if len(out) < total {
		return 0, ErrBufferTooSmall
	}
	out[0] = byte(addr)
	out[1] = byte(n + 2)
	out[2] = byte(pkt.Type())
	copy(out[3:], body[:n])
	out[3+n] = crc8(out[2 : 3+n])
	return total, nil
}

// EncodeFrame is Encode into an owned RawFrame, for handing straight to a
// transport that deals in validated frames.
func EncodeFrame(addr Address, pkt Packet) (RawFrame, error) {
	var f RawFrame
	n, err := Encode(addr, pkt, f.data[:])
	if err != nil {
		return f, err
	}
	f.n = uint8(n)
	return f, nil
}

// Unknown preserves the payload of a frame whose type code has no decoder.
type Unknown struct {
	FrameType  FrameType
	Payload    [MaxPayload]byte
	PayloadLen uint8
}

func (u *Unknown) Type() FrameType { return u.FrameType }

func (u *Unknown) appendPayload(dst []byte) (int, error) {
	return copy(dst, u.Payload[:u.PayloadLen]), nil
}

// malformed builds the standard short-payload decode error.
func malformed(t FrameType, payload []byte) error {
	return fmt.Errorf("%w: type 0x%02X payload %d bytes", ErrMalformed, byte(t), len(payload))
}
