package serial

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
)

type recordPort struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *recordPort) Read(b []byte) (int, error) { time.Sleep(time.Millisecond); return 0, nil }
func (p *recordPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}
func (p *recordPort) Close() error { return nil }

func (p *recordPort) bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte{}, p.buf.Bytes()...)
}

func TestTXWriterWritesWireFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fr, err := crsf.EncodeFrame(crsf.AddrFlightController, &crsf.Heartbeat{Origin: int16(crsf.AddrFlightController)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p := &recordPort{}
	w := NewTXWriter(ctx, p, 8)
	defer w.Close()
	if err := w.SendFrame(fr); err != nil {
		t.Fatalf("send: %v", err)
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if bytes.Equal(p.bytes(), fr.Bytes()) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("wire mismatch: got % X want % X", p.bytes(), fr.Bytes())
}

type stuckPort struct{ block chan struct{} }

func (p *stuckPort) Read(b []byte) (int, error)  { time.Sleep(time.Millisecond); return 0, nil }
func (p *stuckPort) Write(b []byte) (int, error) { <-p.block; return len(b), nil }
func (p *stuckPort) Close() error                { close(p.block); return nil }

func TestTXWriterOverflow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fr, err := crsf.EncodeFrame(crsf.AddrFlightController, &crsf.Heartbeat{Origin: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p := &stuckPort{block: make(chan struct{})}
	w := NewTXWriter(ctx, p, 1)
	defer w.Close()
	defer p.Close()
	var overflow error
	for i := 0; i < 8; i++ {
		if err := w.SendFrame(fr); err != nil && overflow == nil {
			overflow = err
		}
	}
	if !errors.Is(overflow, ErrTxOverflow) {
		t.Fatalf("expected ErrTxOverflow, got %v", overflow)
	}
}
