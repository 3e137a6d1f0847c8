package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
	"github.com/kstaniek/go-crsf-bridge/internal/hub"
	"github.com/kstaniek/go-crsf-bridge/internal/metrics"
	"github.com/kstaniek/go-crsf-bridge/internal/netstream"
	"github.com/kstaniek/go-crsf-bridge/internal/serial"
)

func (s *Server) startReader(ctxDone <-chan struct{}, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = conn.Close() }()
		parser := crsf.NewParser()
		// Reads are capped at one max frame so a burst can always be
		// buffered on top of a pending partial frame.
		buf := make([]byte, crsf.MaxFrameSize)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readDeadline))
			n, err := conn.Read(buf)
			if n > 0 {
				for fr, perr := range parser.IngestRaw(buf[:n]) {
					if perr != nil {
						s.countParseError(perr)
						logger.Debug("client_frame_error", "error", perr)
						continue
					}
					if s.frameFilter != nil && !s.frameFilter(&fr) {
						continue
					}
					metrics.IncTCPRx()
					if serr := s.Send(fr); serr != nil {
						if errors.Is(serr, serial.ErrTxOverflow) || errors.Is(serr, netstream.ErrTxOverflow) {
							s.totalBackendOverflow.Add(1)
							logger.Debug("backend_overflow_drop", "type", fmt.Sprintf("0x%02X", fr.Type()), "len", fr.FrameLen())
						} else {
							wrap := fmt.Errorf("%w: %v", ErrBackendTx, serr)
							metrics.IncError(mapErrToMetric(wrap))
							s.setError(wrap)
							s.totalBackendErrors.Add(1)
							logger.Error("backend_tx_error", "error", wrap, "type", fmt.Sprintf("0x%02X", fr.Type()))
						}
					}
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return
			}
			select {
			case <-ctxDone:
				return
			default:
			}
		}
	}()
}

// countParseError classifies reassembly failures from a client byte stream.
func (s *Server) countParseError(err error) {
	switch {
	case errors.Is(err, crsf.ErrSync):
		metrics.IncSyncError()
	case errors.Is(err, crsf.ErrCRC):
		metrics.IncCRCError()
	case errors.Is(err, crsf.ErrOverflow):
		metrics.IncOverflow()
	default:
		metrics.IncMalformed()
	}
}
