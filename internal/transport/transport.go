package transport

import "github.com/kstaniek/go-crsf-bridge/internal/crsf"

// FrameSink is a generic CRSF frame transmission target. Backends hand one
// to the TCP server so client frames reach the device without the server
// knowing which link is behind it.
type FrameSink interface {
	SendFrame(crsf.RawFrame) error
}

// Compile-time assertion that the shared async writer is a valid sink.
var _ FrameSink = (*AsyncTx)(nil)
