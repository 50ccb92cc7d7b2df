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

package stream

import (
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/dma"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
)

// Buffer is a zero-copy borrow of one DMA ring slot. Data aliases the
// shared region and is valid until SubmitBuffer or ReleaseBuffer
// returns the slot.
type Buffer struct {
	// Data is the visible payload. On TX with headers enabled the
	// header region is reserved and excluded.
	Data []byte

	dir dma.Direction
	raw []byte
	seq int64
}

// Capacity returns the payload capacity in samples.
func (b *Buffer) Capacity(f Format) int {
	return len(b.Data) / f.Size()
}

// GetBuffer borrows the next available buffer: a filled one on RX, a
// free one on TX. At most numTransfers buffers may be borrowed per
// direction; borrowing beyond the cap fails with NoMem instead of
// blocking.
func (e *Engine) GetBuffer(dir dma.Direction, timeout time.Duration) (*Buffer, error) {
	ep, err := e.configured(dir)
	if err != nil {
		return nil, err
	}
	if ep.borrows >= ep.numTransfers {
		return nil, errcode.Wrap(errcode.NoMem, ErrBorrowCap{Cap: ep.numTransfers})
	}
	if timeout == 0 {
		timeout = ep.timeout
	}
	deadline := time.Now().Add(timeout)

	seq := ep.ring.SWCount() + int64(ep.borrows)
	for {
		if err := ep.ring.Refresh(); err != nil {
			return nil, err
		}
		var ready bool
		if dir == dma.RX {
			ready = seq < ep.ring.HWCount()
		} else {
			ready = seq-ep.ring.HWCount() < int64(ep.ring.BufferCount())
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			return nil, errcode.Wrap(errcode.Timeout, ErrDeadline{Dir: dir.String(), Timeout: timeout})
		}
		time.Sleep(pollPeriod)
	}

	raw, err := ep.ring.Buffer(seq)
	if err != nil {
		return nil, err
	}
	buf := &Buffer{dir: dir, raw: raw, seq: seq, Data: raw}
	if dir == dma.TX && ep.header {
		buf.Data = raw[HeaderLen:]
	}
	ep.borrows++
	return buf, nil
}

// SubmitBuffer hands a borrowed TX buffer to the hardware with a
// sample count no larger than its capacity. Headers are written when
// enabled; buffers must be submitted in borrow order.
func (e *Engine) SubmitBuffer(buf *Buffer, nSamples int, meta *Metadata) error {
	ep, err := e.configured(dma.TX)
	if err != nil {
		return err
	}
	if buf == nil || buf.dir != dma.TX {
		return errcode.New(errcode.Invalid, "submit of a non-tx buffer")
	}
	if nSamples < 0 || nSamples > buf.Capacity(ep.format) {
		return errcode.New(errcode.Invalid, "sample count %d exceeds capacity %d",
			nSamples, buf.Capacity(ep.format))
	}
	if buf.seq != ep.ring.SWCount() {
		return errcode.New(errcode.Invalid, "buffers must be submitted in borrow order")
	}
	if ep.header {
		var ts uint64
		if meta != nil && meta.Flags&HasTime != 0 {
			ts = meta.Timestamp
		}
		putHeader(buf.raw, ts)
	}
	// Zero the tail so stale samples never leave the board.
	for i := nSamples * ep.format.Size(); i < len(buf.Data); i++ {
		buf.Data[i] = 0
	}
	ep.borrows--
	return ep.ring.Advance()
}

// ReleaseBuffer returns a borrowed RX buffer to the ring without
// consuming its data.
func (e *Engine) ReleaseBuffer(buf *Buffer) error {
	ep, err := e.configured(dma.RX)
	if err != nil {
		return err
	}
	if buf == nil || buf.dir != dma.RX {
		return errcode.New(errcode.Invalid, "release of a non-rx buffer")
	}
	if buf.seq != ep.ring.SWCount() {
		return errcode.New(errcode.Invalid, "buffers must be released in borrow order")
	}
	ep.borrows--
	return ep.ring.Advance()
}
