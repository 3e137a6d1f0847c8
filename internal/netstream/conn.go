package netstream

import (
	"net"
	"time"
)

// Conn abstracts a remote CRSF byte stream (a ser2net-style TCP endpoint in
// front of the device UART) for testability.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dial connects to a remote CRSF stream endpoint with a connect timeout.
func Dial(addr string, timeout time.Duration) (Conn, error) {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return c, nil
}
