package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
	"github.com/kstaniek/go-crsf-bridge/internal/hub"
	"github.com/kstaniek/go-crsf-bridge/internal/metrics"
	"github.com/kstaniek/go-crsf-bridge/internal/netstream"
)

// dialNetDevice is a hook for tests (overridden in unit tests).
var dialNetDevice = netstream.Dial

// initNetBackend connects to a remote CRSF stream (ser2net style endpoint in
// front of the device UART) and launches the RX loop.
func initNetBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(crsf.RawFrame) error, func(), error) {
	conn, err := dialNetDevice(cfg.netAddr, cfg.netDialTO)
	if err != nil {
		return nil, func() {}, fmt.Errorf("dial net device: %w", err)
	}
	l.Info("net_open", "addr", cfg.netAddr)
	w := netstream.NewTXWriter(ctx, conn, txQueueSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("net_rx_end")
		buf := make([]byte, deviceReadBufSize)
		parser := crsf.NewParser()
		backoff := rxBackoffMin
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			_ = conn.SetReadDeadline(time.Now().Add(cfg.deviceReadTO))
			n, err := conn.Read(buf)
			if n > 0 {
				ingestDevice(parser, buf[:n], h, l)
				backoff = rxBackoffMin
			}
			if err != nil {
				if ctx.Err() != nil { // shutting down
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return // remote closed the stream
				}
				metrics.IncError(metrics.ErrDeviceRead)
				l.Warn("net_read_error", "error", err, "backoff", backoff)
				sleepFn(backoff)
				backoff *= 2
				if backoff > rxBackoffMax {
					backoff = rxBackoffMax
				}
			}
		}
	}()
	return w.SendFrame, func() { _ = conn.Close(); w.Close() }, nil
}
