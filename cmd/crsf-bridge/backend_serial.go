package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
	"github.com/kstaniek/go-crsf-bridge/internal/hub"
	"github.com/kstaniek/go-crsf-bridge/internal/metrics"
	"github.com/kstaniek/go-crsf-bridge/internal/serial"
)

// sleepFn allows tests to intercept backoff sleeps.
var sleepFn = time.Sleep

// openSerialPort is a hook for tests (overridden in unit tests).
var openSerialPort = serial.Open

// ingestDevice feeds one read's worth of bytes into the device parser,
// broadcasting reassembled frames and counting decode failures.
func ingestDevice(parser *crsf.Parser, data []byte, h *hub.Hub, l *slog.Logger) {
	for fr, err := range parser.IngestRaw(data) {
		if err != nil {
			switch {
			case errors.Is(err, crsf.ErrSync):
				metrics.IncSyncError()
			case errors.Is(err, crsf.ErrCRC):
				metrics.IncCRCError()
			case errors.Is(err, crsf.ErrOverflow):
				metrics.IncOverflow()
				l.Warn("device_parser_overflow")
			default:
				metrics.IncMalformed()
			}
			continue
		}
		metrics.IncDeviceRx()
		h.Broadcast(fr)
	}
}

// initSerialBackend sets up the serial backend, launching the RX loop.
func initSerialBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(crsf.RawFrame) error, func(), error) {
	sp, err := openSerialPort(cfg.serialDev, cfg.baud, cfg.deviceReadTO)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open serial: %w", err)
	}
	l.Info("serial_open", "device", cfg.serialDev, "baud", cfg.baud)
	w := serial.NewTXWriter(ctx, sp, txQueueSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("serial_rx_end")
		buf := make([]byte, deviceReadBufSize)
		parser := crsf.NewParser()
		backoff := rxBackoffMin
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := sp.Read(buf)
			if n > 0 {
				ingestDevice(parser, buf[:n], h, l)
				backoff = rxBackoffMin
			}
			if err != nil {
				if ctx.Err() != nil { // shutting down
					return
				}
				var perr *os.PathError
				if errors.As(err, &perr) {
					return // device removed or fatal
				}
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					continue // read timeout surfaces as EOF
				}
				metrics.IncError(metrics.ErrDeviceRead)
				l.Warn("serial_read_error", "error", err, "backoff", backoff)
				sleepFn(backoff)
				backoff *= 2
				if backoff > rxBackoffMax {
					backoff = rxBackoffMax
				}
			}
		}
	}()
	return w.SendFrame, func() { _ = sp.Close(); w.Close() }, nil
}
