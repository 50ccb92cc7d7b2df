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

// Package dma maintains the software side of the board's DMA rings: a
// monotonic 64-bit software counter per direction tracked against the
// hardware counter reported by the driver.
package dma

import (
	"github.com/litex-hub/go-m2sdr/pkg/log"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

type Direction int

const (
	// RX is the writer ring: the device fills buffers, the host
	// drains them.
	RX Direction = iota
	// TX is the reader ring: the host fills buffers, the device
	// drains them.
	TX
)

func (d Direction) String() string {
	if d == RX {
		return "rx"
	}
	return "tx"
}

// Ring tracks one direction of the DMA engine. Counters are compared
// with wrap-safe signed differences and never treated as indices
// directly.
type Ring struct {
	dev transport.DMA
	dir Direction

	n int // buffer count
	b int // buffer size

	sw int64
	hw int64

	enabled    bool
	underflows uint64
	overflows  uint64
}

// NewRing builds a ring over the transport's negotiated geometry.
func NewRing(dev transport.DMA, dir Direction) (*Ring, error) {
	info, err := dev.DMAInfo()
	if err != nil {
		return nil, err
	}
	return &Ring{
		dev: dev,
		dir: dir,
		n:   info.BufferCount,
		b:   info.BufferSize,
	}, nil
}

func (r *Ring) BufferCount() int { return r.n }
func (r *Ring) BufferSize() int  { return r.b }
func (r *Ring) SWCount() int64   { return r.sw }
func (r *Ring) HWCount() int64   { return r.hw }

// Underflows reports how many times the hardware outran the software
// on the TX ring.
func (r *Ring) Underflows() uint64 { return r.underflows }

// Overflows reports how many times the software fell behind the
// hardware on the RX ring.
func (r *Ring) Overflows() uint64 { return r.overflows }

// Enable resets both counters and starts the engine.
func (r *Ring) Enable() error {
	r.sw = 0
	r.hw = 0
	r.underflows = 0
	r.overflows = 0
	var err error
	if r.dir == RX {
		err = r.dev.SetWriterEnable(true)
	} else {
		err = r.dev.SetReaderEnable(true)
	}
	if err != nil {
		return err
	}
	r.enabled = true
	log.Debug("dma: %s ring enabled, %d x %d bytes", r.dir, r.n, r.b)
	return nil
}

func (r *Ring) Disable() error {
	var err error
	if r.dir == RX {
		err = r.dev.SetWriterEnable(false)
	} else {
		err = r.dev.SetReaderEnable(false)
	}
	if err != nil {
		return err
	}
	r.enabled = false
	return nil
}

func (r *Ring) Enabled() bool { return r.enabled }

// Refresh pulls the hardware counter from the driver and accounts for
// underflow/overflow. Both conditions resynchronize the software
// counter so the stream continues; neither is an error.
func (r *Ring) Refresh() error {
	st, err := r.dev.DMAStatus()
	if err != nil {
		return err
	}
	hw := st.WriterHWCount
	if r.dir == TX {
		hw = st.ReaderHWCount
	}
	if hw > r.hw {
		r.hw = hw
	}

	switch r.dir {
	case TX:
		if r.sw-r.hw < 0 {
			r.underflows++
			if log.Enabled(log.DebugLevel) {
				log.Debug("dma: tx underflow, sw=%d hw=%d", r.sw, r.hw)
			}
			r.sw = r.hw
			return r.pushSW()
		}
	case RX:
		if r.sw+int64(r.n) < r.hw {
			r.overflows++
			if log.Enabled(log.DebugLevel) {
				log.Debug("dma: rx overflow, sw=%d hw=%d", r.sw, r.hw)
			}
			r.sw = r.hw - int64(r.n)
			return r.pushSW()
		}
	}
	return nil
}

// Next returns the current buffer when one is available: a filled one
// on RX (sw < hw), a free one on TX (sw - hw < n). It returns nil when
// the ring has nothing for the caller.
func (r *Ring) Next() ([]byte, error) {
	switch r.dir {
	case RX:
		if r.sw >= r.hw {
			return nil, nil
		}
		return r.dev.WriterBuf(int(r.sw % int64(r.n)))
	default:
		if r.sw-r.hw >= int64(r.n) {
			return nil, nil
		}
		return r.dev.ReaderBuf(int(r.sw % int64(r.n)))
	}
}

// Buffer returns the ring slot for an absolute counter position. The
// caller is responsible for knowing the slot is safe to touch.
func (r *Ring) Buffer(seq int64) ([]byte, error) {
	idx := int(seq % int64(r.n))
	if r.dir == RX {
		return r.dev.WriterBuf(idx)
	}
	return r.dev.ReaderBuf(idx)
}

// Advance hands the current buffer back (RX) or over (TX) and reports
// the new software counter to the driver.
func (r *Ring) Advance() error {
	r.sw++
	return r.pushSW()
}

func (r *Ring) pushSW() error {
	if r.dir == RX {
		return r.dev.UpdateWriterSWCount(r.sw)
	}
	return r.dev.UpdateReaderSWCount(r.sw)
}

// Outstanding is the number of buffers between software and hardware.
func (r *Ring) Outstanding() int64 {
	d := r.sw - r.hw
	if d < 0 {
		return -d
	}
	return d
}
