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

package sim

import (
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

func (b *Board) DMAInfo() (transport.DMAInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return transport.DMAInfo{BufferSize: b.bufSize, BufferCount: b.bufCount}, nil
}

func (b *Board) SetReaderEnable(enable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readerEn = enable
	if enable {
		b.readerHW = 0
		b.readerSW = 0
	}
	return nil
}

func (b *Board) SetWriterEnable(enable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writerEn = enable
	if enable {
		b.writerHW = 0
		b.writerSW = 0
	}
	return nil
}

func (b *Board) SetLoopback(enable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loopback = enable
	return nil
}

func (b *Board) DMAStatus() (transport.DMAStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stepLocked()
	return transport.DMAStatus{
		ReaderHWCount: b.readerHW,
		WriterHWCount: b.writerHW,
	}, nil
}

// UpdateReaderSWCount lets the reader engine consume the buffers the
// host just filled.
func (b *Board) UpdateReaderSWCount(sw int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readerSW = sw
	b.stepLocked()
	return nil
}

func (b *Board) UpdateWriterSWCount(sw int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writerSW = sw
	b.stepLocked()
	return nil
}

// stepLocked advances the model: the reader engine drains every buffer
// the host has made available; with loopback on, drained buffers feed
// the writer ring. A configured RX pattern produces writer buffers on
// demand instead.
func (b *Board) stepLocked() {
	n := int64(b.bufCount)
	for b.readerEn && b.readerHW < b.readerSW {
		src := b.reader[b.readerHW%n]
		if b.loopback && b.writerEn {
			copy(b.writer[b.writerHW%n], src)
			b.writerHW++
		}
		b.readerHW++
	}
	if b.rxPattern != nil && b.writerEn {
		// Keep the writer ring topped up without overflowing it.
		for b.writerHW-b.writerSW < n {
			b.rxPattern(b.writerHW, b.writer[b.writerHW%n])
			b.writerHW++
		}
	}
}

func (b *Board) ReaderBuf(i int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= b.bufCount {
		return nil, transport.ErrBufIndex{Index: i, Count: b.bufCount}
	}
	return b.reader[i], nil
}

func (b *Board) WriterBuf(i int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= b.bufCount {
		return nil, transport.ErrBufIndex{Index: i, Count: b.bufCount}
	}
	return b.writer[i], nil
}
