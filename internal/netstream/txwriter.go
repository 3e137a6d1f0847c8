package netstream

import (
	"context"
	"errors"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
	"github.com/kstaniek/go-crsf-bridge/internal/logging"
	"github.com/kstaniek/go-crsf-bridge/internal/metrics"
	"github.com/kstaniek/go-crsf-bridge/internal/transport"
)

var ErrTxOverflow = errors.New("netstream tx overflow")

// TXWriter funnels all writes to the remote stream through a single
// goroutine, mirroring the serial TXWriter behavior.
type TXWriter struct{ base *transport.AsyncTx }

// NewTXWriter creates a netstream TXWriter with a buffered channel of size buf.
func NewTXWriter(parent context.Context, c Conn, buf int) *TXWriter {
	send := func(fr crsf.RawFrame) error {
		_, err := c.Write(fr.Bytes())
		return err
	}
	hooks := transport.Hooks{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrDeviceWrite)
			logging.L().Error("netstream_write_error", "error", err)
		},
		OnAfter: func() { metrics.IncDeviceTx() },
		OnDrop: func() error {
			metrics.IncError(metrics.ErrDeviceOverflow)
			return ErrTxOverflow
		},
	}
	return &TXWriter{base: transport.NewAsyncTx(parent, buf, send, hooks)}
}

// SendFrame queues a frame for asynchronous write (drops with ErrTxOverflow if buffer full).
func (w *TXWriter) SendFrame(fr crsf.RawFrame) error { return w.base.SendFrame(fr) }

// Close stops the writer and waits for the worker goroutine to finish.
func (w *TXWriter) Close() { w.base.Close() }
