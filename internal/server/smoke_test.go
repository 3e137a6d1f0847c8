package server

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/kstaniek/go-crsf-bridge/internal/crsf"
	"github.com/kstaniek/go-crsf-bridge/internal/hub"
	"github.com/kstaniek/go-crsf-bridge/internal/metrics"
)

// capture backend sends for verification
var (
	captured   []crsf.RawFrame
	capturedMu sync.Mutex
)

func dummySend(fr crsf.RawFrame) error {
	capturedMu.Lock()
	captured = append(captured, fr)
	capturedMu.Unlock()
	return nil
}

func resetCaptured() {
	capturedMu.Lock()
	captured = nil
	capturedMu.Unlock()
}

func capturedLen() int {
	capturedMu.Lock()
	defer capturedMu.Unlock()
	return len(captured)
}

func mustFrame(t testing.TB, pkt crsf.Packet) crsf.RawFrame {
	t.Helper()
	fr, err := crsf.EncodeFrame(crsf.AddrFlightController, pkt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return fr
}

// readFrames collects up to want frames from conn within timeout using a
// fresh reassembly parser.
func readFrames(t *testing.T, conn net.Conn, want int, timeout time.Duration) []crsf.RawFrame {
	t.Helper()
	parser := crsf.NewParser()
	var out []crsf.RawFrame
	deadline := time.Now().Add(timeout)
	buf := make([]byte, crsf.MaxFrameSize)
	for time.Now().Before(deadline) && len(out) < want {
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Millisecond))
		n, err := conn.Read(buf)
		if n > 0 {
			for fr, perr := range parser.IngestRaw(buf[:n]) {
				if perr != nil {
					continue // mid-stream attach; parser resyncs
				}
				out = append(out, fr)
			}
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			break
		}
	}
	return out
}

// TestSmokeServer starts the TCP server on an ephemeral port and pushes one
// frame in each direction.
func TestSmokeServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()

	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	srv.SetListenAddr(":0")
	go func() {
		if err := srv.Serve(ctx); err != nil {
			t.Logf("Serve returned: %v", err)
		}
	}()
	select {
	case <-srv.Ready():
	case <-time.After(1 * time.Second):
		t.Fatalf("server did not signal readiness")
	}

	d := net.Dialer{Timeout: 1 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// --- Client -> Server path ---
	hb := mustFrame(t, &crsf.Heartbeat{Origin: int16(crsf.AddrFlightController)})
	if _, err := conn.Write(hb.Bytes()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && capturedLen() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	capturedMu.Lock()
	ok := len(captured) == 1 && captured[0].Type() == crsf.TypeHeartbeat
	capturedMu.Unlock()
	if !ok {
		t.Fatalf("expected one captured heartbeat, got %d frames", capturedLen())
	}

	// --- Server -> Client broadcast path ---
	att := mustFrame(t, &crsf.Attitude{Pitch: -1000, Roll: 6376, Yaw: -30000})
	srv.Hub.Broadcast(att)
	got := readFrames(t, conn, 1, 300*time.Millisecond)
	if len(got) != 1 {
		t.Fatalf("expected 1 broadcast frame, got %d", len(got))
	}
	if got[0].Type() != crsf.TypeAttitude {
		t.Fatalf("broadcast frame type mismatch got 0x%02X", got[0].Type())
	}
	pkt, err := got[0].Decode()
	if err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if a, ok := pkt.(*crsf.Attitude); !ok || a.Roll != 6376 {
		t.Fatalf("unexpected decoded packet %#v", pkt)
	}
}

// TestSmokeBatch verifies the batching flush path by pushing frames quickly.
func TestSmokeBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()

	c1 := dialClient(t, ctx, srv.Addr())
	defer c1.Close()

	regDeadline := time.Now().Add(60 * time.Millisecond)
	for time.Now().Before(regDeadline) {
		if h.Count() > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Broadcast exactly 64 frames to force an immediate flush (batch threshold 64)
	for i := 0; i < 64; i++ {
		srv.Hub.Broadcast(mustFrame(t, &crsf.Heartbeat{Origin: int16(i)}))
	}
	got := readFrames(t, c1, 64, 500*time.Millisecond)
	if len(got) < 2 {
		t.Fatalf("expected multiple batched frames, got %d", len(got))
	}
	for i, fr := range got {
		if fr.Type() != crsf.TypeHeartbeat {
			t.Fatalf("frame %d type 0x%02X", i, fr.Type())
		}
	}
}

// TestSmokeBackpressureDrop sets a tiny buffer and ensures the slow client
// stays connected under the drop policy.
func TestSmokeBackpressureDrop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	h.OutBufSize = 1
	h.Policy = hub.PolicyDrop
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialClient(t, ctx, srv.Addr())
	defer c1.Close()

	fr := mustFrame(t, &crsf.Heartbeat{Origin: int16(crsf.AddrFlightController)})
	for i := 0; i < 5; i++ {
		srv.Hub.Broadcast(fr)
	}
	// Drain whatever got through
	_ = c1.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	one := make([]byte, 32)
	_, _ = c1.Read(one)
	// Connection should still be alive
	_ = c1.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	tmp := make([]byte, 8)
	_, err := c1.Read(tmp)
	if err != nil && !isTimeout(err) && err == io.EOF {
		t.Fatalf("connection closed unexpectedly under drop policy: %v", err)
	}
}

// TestSmokeBackpressureKick ensures a slow client gets closed under kick policy.
func TestSmokeBackpressureKick(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	h.OutBufSize = 1
	h.Policy = hub.PolicyKick
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialClient(t, ctx, srv.Addr())
	defer c1.Close()
	// Avoid reading from c1 to simulate slowness
	fr := mustFrame(t, &crsf.Heartbeat{Origin: int16(crsf.AddrFlightController)})
	for i := 0; i < 10; i++ {
		srv.Hub.Broadcast(fr)
		time.Sleep(2 * time.Millisecond)
	}
	_ = c1.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 16)
	_, err := c1.Read(buf)
	if err == nil {
		t.Logf("kick policy: client not yet closed (data received)")
	} else if err == io.EOF {
		// expected closure path
	} else if isTimeout(err) {
		t.Logf("kick policy: timeout waiting for closure (may be timing-sensitive)")
	}
}

// TestSmokeMetrics ensures counters reflect activity on both directions.
func TestSmokeMetrics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	h.OutBufSize = 1
	h.Policy = hub.PolicyDrop
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()

	pre := metrics.Snap()
	c := dialClient(t, ctx, srv.Addr())
	defer c.Close()

	// Wait until the accept loop registers the client so broadcasts below
	// have someone to queue to.
	regDeadline := time.Now().Add(120 * time.Millisecond)
	for time.Now().Before(regDeadline) {
		if h.Count() > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Client -> Server: send 3 frames
	for i := 0; i < 3; i++ {
		fr := mustFrame(t, &crsf.Heartbeat{Origin: int16(i)})
		if _, err := c.Write(fr.Bytes()); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}

	// Server -> Client: broadcast 5 frames (some may drop due to tiny buffer)
	fr := mustFrame(t, &crsf.Heartbeat{Origin: 0x42})
	for i := 0; i < 5; i++ {
		srv.Hub.Broadcast(fr)
	}
	_ = readFrames(t, c, 1, 200*time.Millisecond)
	postWait := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(postWait) {
		d := metrics.Snap()
		if d.TCPTx > pre.TCPTx && d.TCPRx-pre.TCPRx >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	post := metrics.Snap()

	if d := post.TCPRx - pre.TCPRx; d < 3 {
		t.Fatalf("expected >=3 TCPRx delta, got %d (pre=%d post=%d)", d, pre.TCPRx, post.TCPRx)
	}
	if d := post.TCPTx - pre.TCPTx; d == 0 {
		t.Fatalf("expected TCPTx >0 delta (pre=%d post=%d)", pre.TCPTx, post.TCPTx)
	}
	if post.HubDrops < pre.HubDrops {
		t.Fatalf("hub drops decreased pre=%d post=%d", pre.HubDrops, post.HubDrops)
	}
}

// TestSmokeDeviceMetrics wires a fake device send and checks device counters.
func TestSmokeDeviceMetrics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := hub.New()
	srv := NewServer(WithHub(h))
	var sentMu sync.Mutex
	var sent []crsf.RawFrame
	srv.Send = func(fr crsf.RawFrame) error { // simulate device transmit
		metrics.IncDeviceTx()
		sentMu.Lock()
		sent = append(sent, fr)
		sentMu.Unlock()
		return nil
	}
	go srv.Serve(ctx)
	select {
	case <-srv.Ready():
	case <-time.After(1 * time.Second):
		t.Fatalf("server not ready")
	}

	pre := metrics.Snap()
	c := dialClient(t, ctx, srv.Addr())
	defer c.Close()

	// Simulate inbound device frames (device->hub->client)
	for i := 0; i < 3; i++ {
		metrics.IncDeviceRx()
		srv.Hub.Broadcast(mustFrame(t, &crsf.Heartbeat{Origin: int16(i)}))
	}
	flushDeadline := time.Now().Add(120 * time.Millisecond)
	for time.Now().Before(flushDeadline) {
		if snap := metrics.Snap(); snap.TCPTx > pre.TCPTx {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Client -> server: two frames should invoke srv.Send
	for i := 0; i < 2; i++ {
		fr := mustFrame(t, &crsf.Heartbeat{Origin: int16(0x20 + i)})
		if _, err := c.Write(fr.Bytes()); err != nil {
			t.Fatalf("client write %d: %v", i, err)
		}
	}
	deviceDeadline := time.Now().Add(120 * time.Millisecond)
	for time.Now().Before(deviceDeadline) {
		if snap := metrics.Snap(); snap.DeviceTx-pre.DeviceTx >= 2 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	post := metrics.Snap()
	if d := post.DeviceRx - pre.DeviceRx; d < 3 {
		t.Fatalf("expected DeviceRx delta >=3 got %d", d)
	}
	sentMu.Lock()
	nSent := len(sent)
	sentMu.Unlock()
	if d := post.DeviceTx - pre.DeviceTx; d < 2 {
		t.Fatalf("expected DeviceTx delta >=2 got %d (sent=%d)", d, nSent)
	}
}

// TestSmokeCorruptStream sends garbage around a valid frame; the server must
// resync, keep the connection open and still forward the valid frame.
func TestSmokeCorruptStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()
	c := dialClient(t, ctx, srv.Addr())
	defer c.Close()
	pre := metrics.Snap()

	hb := mustFrame(t, &crsf.Heartbeat{Origin: 0x11})
	corrupt := append([]byte{}, hb.Bytes()...)
	corrupt[len(corrupt)-1] ^= 0xFF // break the CRC
	if _, err := c.Write(append(corrupt, hb.Bytes()...)); err != nil {
		t.Fatalf("write corrupt stream: %v", err)
	}

	// The checksum failure is reported right away; the trailing valid frame
	// is held back because the resync scan treats its leftover bytes as a
	// longer frame candidate still awaiting completion.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		snap := metrics.Snap()
		if snap.CRCErrors+snap.SyncErrors > pre.CRCErrors+pre.SyncErrors {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	post := metrics.Snap()
	if post.CRCErrors+post.SyncErrors <= pre.CRCErrors+pre.SyncErrors {
		t.Fatalf("expected decode error counters to increase")
	}

	// Keep feeding good frames; the scan rejects the phantom candidate once
	// enough bytes arrive and the stream realigns. Over the whole input
	// (one corrupt frame, three valid ones) exactly three frames survive.
	for i := 0; i < 2; i++ {
		if _, err := c.Write(hb.Bytes()); err != nil {
			t.Fatalf("write after corrupt: %v", err)
		}
	}
	deadline = time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) && capturedLen() < 3 {
		time.Sleep(2 * time.Millisecond)
	}
	if capturedLen() != 3 {
		t.Fatalf("expected 3 forwarded frames after resync, got %d", capturedLen())
	}
	capturedMu.Lock()
	for i, fr := range captured {
		if fr.Type() != crsf.TypeHeartbeat {
			t.Errorf("frame %d type 0x%02X, want heartbeat", i, fr.Type())
		}
	}
	capturedMu.Unlock()
}

// TestSmokeConcurrentClients ensures broadcasts reach multiple simultaneous clients.
func TestSmokeConcurrentClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()
	const nClients = 5
	conns := make([]net.Conn, 0, nClients)
	for i := 0; i < nClients; i++ {
		conns = append(conns, dialClient(t, ctx, srv.Addr()))
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	regAllDeadline := time.Now().Add(120 * time.Millisecond)
	for time.Now().Before(regAllDeadline) {
		if h.Count() == nClients {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		srv.Hub.Broadcast(mustFrame(t, &crsf.Heartbeat{Origin: int16(i)}))
	}
	for idx, c := range conns {
		got := readFrames(t, c, 1, 300*time.Millisecond)
		if len(got) == 0 {
			t.Fatalf("client %d received no frames", idx)
		}
		if got[0].Type() != crsf.TypeHeartbeat {
			t.Fatalf("client %d unexpected type 0x%02X", idx, got[0].Type())
		}
	}
}

// TestGracefulShutdown ensures Shutdown closes listener and active clients.
func TestGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialClient(t, ctx, srv.Addr())
	c2 := dialClient(t, ctx, srv.Addr())
	wait := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(wait) {
		if h.Count() >= 2 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	sdCtx, sdCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer sdCancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		t.Fatalf("shutdown err: %v", err)
	}
	_ = c1.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 8)
	if _, err := c1.Read(buf); err == nil {
		t.Fatalf("expected c1 read to fail after shutdown")
	}
	_ = c2.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, err := c2.Read(buf); err == nil {
		t.Fatalf("expected c2 read to fail after shutdown")
	}
}

// TestFrameFilter ensures frames failing the predicate never reach the backend.
func TestFrameFilter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := hub.New()
	var backend []crsf.RawFrame
	var backendMu sync.Mutex
	srv := NewServer(
		WithHub(h),
		WithSend(func(fr crsf.RawFrame) error {
			backendMu.Lock()
			backend = append(backend, fr)
			backendMu.Unlock()
			return nil
		}),
		WithFrameFilter(func(fr *crsf.RawFrame) bool { return fr.Type() == crsf.TypeHeartbeat }),
	)
	go srv.Serve(ctx)
	<-srv.Ready()
	c := dialClient(t, ctx, srv.Addr())
	defer c.Close()
	pre := metrics.Snap()
	// Two heartbeats pass, two attitude frames are filtered.
	frames := []crsf.RawFrame{
		mustFrame(t, &crsf.Heartbeat{Origin: 1}),
		mustFrame(t, &crsf.Attitude{Pitch: 1}),
		mustFrame(t, &crsf.Heartbeat{Origin: 2}),
		mustFrame(t, &crsf.Attitude{Pitch: 2}),
	}
	for i := range frames {
		if _, err := c.Write(frames[i].Bytes()); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		backendMu.Lock()
		l := len(backend)
		backendMu.Unlock()
		if l >= 2 {
			break
		}
		time.Sleep(3 * time.Millisecond)
	}
	post := metrics.Snap()
	backendMu.Lock()
	l := len(backend)
	for _, fr := range backend {
		if fr.Type() != crsf.TypeHeartbeat {
			t.Fatalf("backend received filtered type 0x%02X", fr.Type())
		}
	}
	backendMu.Unlock()
	if l != 2 {
		t.Fatalf("expected 2 backend frames, got %d", l)
	}
	if d := post.TCPRx - pre.TCPRx; d != 2 {
		t.Fatalf("expected TCPRx delta 2 (only heartbeats), got %d", d)
	}
}

// TestStressBroadcast (skipped under -short) creates many clients and pushes
// a higher volume of frames.
func TestStressBroadcast(t *testing.T) {
	if testing.Short() {
		t.Skip("stress skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	resetCaptured()
	h := hub.New()
	srv := NewServer(WithHub(h), WithSend(dummySend))
	go srv.Serve(ctx)
	<-srv.Ready()

	const nClients = 20
	const nFrames = 200
	conns := make([]net.Conn, 0, nClients)
	for i := 0; i < nClients; i++ {
		conns = append(conns, dialClient(t, ctx, srv.Addr()))
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	time.Sleep(40 * time.Millisecond)

	for i := 0; i < nFrames; i++ {
		srv.Hub.Broadcast(mustFrame(t, &crsf.Heartbeat{Origin: int16(i % 64)}))
		if i%25 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	received := 0
	got := make([]bool, nClients)
	for time.Now().Before(deadline) && received < nClients {
		for idx, c := range conns {
			if got[idx] {
				continue
			}
			if frames := readFrames(t, c, 1, 15*time.Millisecond); len(frames) > 0 {
				got[idx] = true
				received++
			}
		}
	}
	if received < nClients {
		t.Fatalf("not all clients received data: %d/%d", received, nClients)
	}
}

// --- Helpers ---

func dialClient(t *testing.T, ctx context.Context, addr string) net.Conn {
	t.Helper()
	d := net.Dialer{Timeout: 1 * time.Second}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
