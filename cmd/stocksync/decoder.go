package main

import "sync/atomic"

// lineDecoder adapts typed-in SKU payloads to the scanner.Decoder contract.
// It stands in for the camera capture loop: Pause drops payloads the way a
// paused camera stops producing frames.
type lineDecoder struct {
	ch     chan string
	paused atomic.Bool
}

func newLineDecoder() *lineDecoder {
	return &lineDecoder{ch: make(chan string, 4)}
}

func (d *lineDecoder) Decodes() <-chan string { return d.ch }
func (d *lineDecoder) Pause()                 { d.paused.Store(true) }
func (d *lineDecoder) Resume()                { d.paused.Store(false) }

// deliver feeds one decoded payload, discarding it while paused.
func (d *lineDecoder) deliver(payload string) bool {
	if d.paused.Load() {
		return false
	}
	d.ch <- payload
	return true
}
