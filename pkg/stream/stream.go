/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package stream is the synchronous streaming engine above the DMA
// rings: bounded copy-mode RX/TX and zero-copy buffer borrowing, with
// per-buffer DMA-header metadata. Calls block the caller; internally
// the engine polls ring status with short sleeps until progress is
// made or the deadline elapses.
package stream

import (
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/dma"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/log"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

const (
	// pollPeriod is the sleep between ring polls while waiting.
	pollPeriod = 100 * time.Microsecond

	// DefaultTimeout applies when Config is given a zero timeout.
	DefaultTimeout = 1 * time.Second
)

type endpoint struct {
	dir          dma.Direction
	ring         *dma.Ring
	format       Format
	numTransfers int
	timeout      time.Duration
	staging      []byte

	header bool
	strip  bool

	borrows int
}

// Engine drives both directions of one device's DMA rings.
type Engine struct {
	dev transport.DMA
	rx  *endpoint
	tx  *endpoint

	// Header flags are session state, not ring state: they may be
	// toggled before a direction is configured and survive
	// reconfiguration.
	rxHeader bool
	rxStrip  bool
	txHeader bool
}

func NewEngine(dev transport.DMA) *Engine {
	return &Engine{dev: dev}
}

// Config prepares one direction. Zero numBuffers/bufferSize mean the
// driver defaults; the effective geometry is reported by the getters.
// numTransfers bounds in-flight buffers and is clamped to the buffer
// count; zero means no extra bound. On success the ring is enabled and
// the sample counters are reset.
func (e *Engine) Config(dir dma.Direction, format Format, numBuffers, bufferSize, numTransfers int, timeout time.Duration) error {
	if format.Size() == 0 {
		return errcode.Wrap(errcode.Invalid, ErrBadFormat{Format: int(format)})
	}
	if numBuffers < 0 || bufferSize < 0 || numTransfers < 0 {
		return errcode.New(errcode.Invalid, "negative ring geometry")
	}

	ring, err := dma.NewRing(e.dev, dir)
	if err != nil {
		return err
	}
	if numBuffers != 0 && numBuffers != ring.BufferCount() {
		log.Debug("stream: %s num_buffers rounded from %d to %d", dir, numBuffers, ring.BufferCount())
	}
	if bufferSize != 0 && bufferSize != ring.BufferSize() {
		log.Debug("stream: %s buffer_size rounded from %d to %d", dir, bufferSize, ring.BufferSize())
	}
	if numTransfers == 0 || numTransfers > ring.BufferCount() {
		numTransfers = ring.BufferCount()
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ep := &endpoint{
		dir:          dir,
		ring:         ring,
		format:       format,
		numTransfers: numTransfers,
		timeout:      timeout,
		staging:      make([]byte, ring.BufferSize()),
	}

	old := e.endpoint(dir)
	if old != nil && old.ring.Enabled() {
		if err := old.ring.Disable(); err != nil {
			return err
		}
	}
	if err := ring.Enable(); err != nil {
		return err
	}
	if dir == dma.RX {
		ep.header = e.rxHeader
		ep.strip = e.rxStrip
		e.rx = ep
	} else {
		ep.header = e.txHeader
		e.tx = ep
	}
	return nil
}

func (e *Engine) endpoint(dir dma.Direction) *endpoint {
	if dir == dma.RX {
		return e.rx
	}
	return e.tx
}

func (e *Engine) configured(dir dma.Direction) (*endpoint, error) {
	ep := e.endpoint(dir)
	if ep == nil {
		return nil, errcode.Wrap(errcode.Invalid, ErrNotConfigured{Dir: dir.String()})
	}
	return ep, nil
}

// NumBuffers reports the effective ring depth for a direction.
func (e *Engine) NumBuffers(dir dma.Direction) int {
	if ep := e.endpoint(dir); ep != nil {
		return ep.ring.BufferCount()
	}
	return 0
}

// BufferSize reports the effective buffer size for a direction.
func (e *Engine) BufferSize(dir dma.Direction) int {
	if ep := e.endpoint(dir); ep != nil {
		return ep.ring.BufferSize()
	}
	return 0
}

// NumTransfers reports the effective in-flight bound for a direction.
func (e *Engine) NumTransfers(dir dma.Direction) int {
	if ep := e.endpoint(dir); ep != nil {
		return ep.numTransfers
	}
	return 0
}

// FormatOf reports the configured sample format for a direction.
func (e *Engine) FormatOf(dir dma.Direction) Format {
	if ep := e.endpoint(dir); ep != nil {
		return ep.format
	}
	return Format(-1)
}

// Underflows reports the TX underflow count since Config.
func (e *Engine) Underflows() uint64 {
	if e.tx == nil {
		return 0
	}
	return e.tx.ring.Underflows()
}

// Overflows reports the RX overflow count since Config.
func (e *Engine) Overflows() uint64 {
	if e.rx == nil {
		return 0
	}
	return e.rx.ring.Overflows()
}

// SetRXHeader tells the engine whether RX buffers carry the 16-byte
// DMA header and whether to strip it from the visible payload.
func (e *Engine) SetRXHeader(enabled, strip bool) {
	e.rxHeader = enabled
	e.rxStrip = strip
	if e.rx != nil {
		e.rx.header = enabled
		e.rx.strip = strip
	}
}

// SetTXHeader tells the engine whether to emit the DMA header on TX
// buffers.
func (e *Engine) SetTXHeader(enabled bool) {
	e.txHeader = enabled
	if e.tx != nil {
		e.tx.header = enabled
	}
}

// Close disables both rings.
func (e *Engine) Close() error {
	var first error
	for _, ep := range []*endpoint{e.rx, e.tx} {
		if ep != nil && ep.ring.Enabled() {
			if err := ep.ring.Disable(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// RX blocks until len(p) bytes of samples have been copied into p or
// the deadline elapses. On timeout no partial count is reported;
// callers retry from a known cursor. Samples are delivered in strict
// hardware production order.
func (e *Engine) RX(p []byte, meta *Metadata, timeout time.Duration) error {
	ep, err := e.configured(dma.RX)
	if err != nil {
		return err
	}
	if len(p)%ep.format.Size() != 0 {
		return errcode.New(errcode.Invalid, "rx buffer not a sample multiple")
	}
	if meta == nil {
		meta = &Metadata{}
	}
	if timeout == 0 {
		timeout = ep.timeout
	}
	deadline := time.Now().Add(timeout)
	overflows := ep.ring.Overflows()

	remaining := len(p)
	for remaining > 0 {
		if err := ep.ring.Refresh(); err != nil {
			return err
		}
		raw, err := ep.ring.Next()
		if err != nil {
			return err
		}
		if raw == nil {
			if time.Now().After(deadline) {
				return errcode.Wrap(errcode.Timeout, ErrDeadline{Dir: "rx", Timeout: timeout})
			}
			time.Sleep(pollPeriod)
			continue
		}

		// Stage the slot so client buffers never alias the DMA
		// region.
		payload := ep.staging[:len(raw)]
		copy(payload, raw)
		if ep.header {
			if ts, ok := parseHeader(payload); ok {
				meta.Timestamp = ts
				meta.Flags |= HasTime
				if ep.strip {
					payload = payload[HeaderLen:]
				}
			}
		}

		n := len(payload)
		if n > remaining {
			n = remaining
		}
		copy(p[len(p)-remaining:], payload[:n])
		remaining -= n
		if err := ep.ring.Advance(); err != nil {
			return err
		}
	}
	if ep.ring.Overflows() > overflows {
		meta.Flags |= Overflowed
	}
	return nil
}

// TX blocks until len(p) bytes of samples have been written to free
// ring buffers or the deadline elapses. When TX headers are enabled
// and meta carries a valid time, each emitted buffer starts with the
// sync word and timestamp.
func (e *Engine) TX(p []byte, meta *Metadata, timeout time.Duration) error {
	ep, err := e.configured(dma.TX)
	if err != nil {
		return err
	}
	if len(p)%ep.format.Size() != 0 {
		return errcode.New(errcode.Invalid, "tx buffer not a sample multiple")
	}
	if meta == nil {
		meta = &Metadata{}
	}
	if timeout == 0 {
		timeout = ep.timeout
	}
	deadline := time.Now().Add(timeout)
	underflows := ep.ring.Underflows()

	remaining := len(p)
	for remaining > 0 {
		if err := ep.ring.Refresh(); err != nil {
			return err
		}
		if ep.ring.Outstanding() >= int64(ep.numTransfers) {
			if time.Now().After(deadline) {
				return errcode.Wrap(errcode.Timeout, ErrDeadline{Dir: "tx", Timeout: timeout})
			}
			time.Sleep(pollPeriod)
			continue
		}
		raw, err := ep.ring.Next()
		if err != nil {
			return err
		}
		if raw == nil {
			if time.Now().After(deadline) {
				return errcode.Wrap(errcode.Timeout, ErrDeadline{Dir: "tx", Timeout: timeout})
			}
			time.Sleep(pollPeriod)
			continue
		}

		off := 0
		if ep.header && meta.Flags&HasTime != 0 {
			putHeader(raw, meta.Timestamp)
			off = HeaderLen
		}
		n := len(raw) - off
		if n > remaining {
			n = remaining
		}
		copy(raw[off:off+n], p[len(p)-remaining:])
		// Zero the tail so stale samples never leave the board.
		for i := off + n; i < len(raw); i++ {
			raw[i] = 0
		}
		remaining -= n
		if err := ep.ring.Advance(); err != nil {
			return err
		}
	}
	if ep.ring.Underflows() > underflows {
		meta.Flags |= Underflowed
	}
	return nil
}
