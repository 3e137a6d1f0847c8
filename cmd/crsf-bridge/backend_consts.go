package main

import "time"

const (
	txQueueSize = 1024 // capacity of async TX ring
	// deviceReadBufSize is the per-read() buffer for backend RX loops. Half
	// the parser window, so a full read can always be buffered on top of a
	// pending partial frame without tripping the overflow path.
	deviceReadBufSize = 64
	rxBackoffMin      = 20 * time.Millisecond
	rxBackoffMax      = 500 * time.Millisecond
)
