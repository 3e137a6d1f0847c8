package crsf

// Protocol size limits. A frame on the wire is
// [Addr:1][Len:1][Type:1][Payload:Len-2][CRC:1]; Len counts everything from
// Type through CRC inclusive.
const (
	MaxFrameSize = 64               // complete frame including addr+len
	MaxPayload   = MaxFrameSize - 4 // payload bytes within a max-size frame

	minFrameLen = 2                // type + crc, empty payload
	maxFrameLen = MaxFrameSize - 2 // largest valid length byte
)

// FrameType identifies the packet carried by a frame.
type FrameType uint8

const (
	TypeGPS                    FrameType = 0x02
	TypeGPSTime                FrameType = 0x03
	TypeGPSExtended            FrameType = 0x06
	TypeVario                  FrameType = 0x07
	TypeBattery                FrameType = 0x08
	TypeBaroAltitude           FrameType = 0x09
	TypeAirspeed               FrameType = 0x0A
	TypeHeartbeat              FrameType = 0x0B
	TypeRPM                    FrameType = 0x0C
	TypeTemperature            FrameType = 0x0D
	TypeVoltages               FrameType = 0x0E
	TypeVTXTelemetry           FrameType = 0x10
	TypeLinkStatistics         FrameType = 0x14
	TypeRCChannelsPacked       FrameType = 0x16
	TypeSubsetRCChannels       FrameType = 0x17
	TypeLinkStatisticsRX       FrameType = 0x1C
	TypeLinkStatisticsTX       FrameType = 0x1D
	TypeAttitude               FrameType = 0x1E
	TypeMAVLinkFC              FrameType = 0x1F
	TypeFlightMode             FrameType = 0x21
	TypeESPNow                 FrameType = 0x22
	TypeDevicePing             FrameType = 0x28
	TypeDeviceInfo             FrameType = 0x29
	TypeParameterSettingsEntry FrameType = 0x2B
	TypeParameterRead          FrameType = 0x2C
	TypeParameterWrite         FrameType = 0x2D
	TypeDirectCommand          FrameType = 0x32
	TypeLogging                FrameType = 0x34
	TypeRemoteRelated          FrameType = 0x3A
	TypeGame                   FrameType = 0x3C
	TypeArdupilot              FrameType = 0x80
	TypeMAVLinkEnvelope        FrameType = 0xAA
	TypeMAVLinkStatus          FrameType = 0xAC
)

// extendedTypeThreshold marks the start of the extended-addressed range.
// Extended packets carry destination and origin address bytes at the front
// of their payload.
const extendedTypeThreshold = 0x28

// Extended reports whether t is in the extended-addressed range.
func (t FrameType) Extended() bool { return t >= extendedTypeThreshold }

// Address is a CRSF device address as used in the frame header and in
// extended payload destination/origin fields.
type Address uint8

const (
	AddrBroadcast        Address = 0x00
	AddrCloud            Address = 0x0E
	AddrUSB              Address = 0x10
	AddrBluetooth        Address = 0x12
	AddrWifiReceiver     Address = 0x13
	AddrVideoReceiver    Address = 0x14
	AddrCurrentSensor    Address = 0xC0
	AddrGPS              Address = 0xC2
	AddrBlackbox         Address = 0xC4
	AddrFlightController Address = 0xC8
	AddrRaceTag          Address = 0xCC
	AddrVTX              Address = 0xCE
	AddrHandset          Address = 0xEA
	AddrReceiver         Address = 0xEC
	AddrTransmitter      Address = 0xEE
)
