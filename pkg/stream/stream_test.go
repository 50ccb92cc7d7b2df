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

package stream_test

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/dma"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/sim"
	"github.com/litex-hub/go-m2sdr/pkg/stream"
)

func TestFormatSizes(t *testing.T) {
	if got := stream.SC16Q11.Size(); got != 4 {
		t.Errorf("SC16Q11 size=%d, want 4", got)
	}
	if got := stream.SC8Q7.Size(); got != 2 {
		t.Errorf("SC8Q7 size=%d, want 2", got)
	}
}

// tone fills samples with a 10 kHz complex tone at amplitude 2047,
// continuing from sample index start.
func tone(p []byte, start int) {
	const (
		rate = 30_720_000.0
		freq = 10_000.0
		amp  = 2047.0
	)
	for i := 0; i < len(p)/4; i++ {
		phase := 2 * math.Pi * freq * float64(start+i) / rate
		binary.LittleEndian.PutUint16(p[4*i:], uint16(int16(amp*math.Cos(phase))))
		binary.LittleEndian.PutUint16(p[4*i+2:], uint16(int16(amp*math.Sin(phase))))
	}
}

func TestLoopbackTone(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(8, 8192))
	if err := board.SetLoopback(true); err != nil {
		t.Fatalf("loopback: %v", err)
	}

	e := stream.NewEngine(board)
	if err := e.Config(dma.TX, stream.SC16Q11, 8, 8192, 0, time.Second); err != nil {
		t.Fatalf("config tx: %v", err)
	}
	if err := e.Config(dma.RX, stream.SC16Q11, 8, 8192, 0, time.Second); err != nil {
		t.Fatalf("config rx: %v", err)
	}
	if got := e.NumBuffers(dma.TX); got != 8 {
		t.Fatalf("effective num_buffers=%d, want 8", got)
	}
	if got := e.BufferSize(dma.RX); got != 8192 {
		t.Fatalf("effective buffer_size=%d, want 8192", got)
	}

	const nbuf = 64
	txb := make([]byte, 8192)
	rxb := make([]byte, 8192)
	for i := 0; i < nbuf; i++ {
		tone(txb, i*len(txb)/4)
		if err := e.TX(txb, nil, time.Second); err != nil {
			t.Fatalf("tx buffer %d: %v", i, err)
		}
		if err := e.RX(rxb, nil, time.Second); err != nil {
			t.Fatalf("rx buffer %d: %v", i, err)
		}
		for s := 0; s < len(txb); s += 2 {
			want := int16(binary.LittleEndian.Uint16(txb[s:]))
			got := int16(binary.LittleEndian.Uint16(rxb[s:]))
			d := int(got) - int(want)
			if d < -1 || d > 1 {
				t.Fatalf("buffer %d sample %d: got %d, want %d", i, s/2, got, want)
			}
		}
	}
	if e.Overflows() != 0 || e.Underflows() != 0 {
		t.Fatalf("overflows=%d underflows=%d during clean loopback",
			e.Overflows(), e.Underflows())
	}
}

func TestRXHeaderTimestamp(t *testing.T) {
	pattern := func(i int64, buf []byte) {
		binary.LittleEndian.PutUint64(buf[0:8], stream.SyncWord)
		binary.LittleEndian.PutUint64(buf[8:16], 1000)
	}
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096), sim.WithRXPattern(pattern))

	e := stream.NewEngine(board)
	if err := e.Config(dma.RX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}
	e.SetRXHeader(true, true)

	// One stripped buffer's worth of samples.
	p := make([]byte, 4096-stream.HeaderLen)
	var meta stream.Metadata
	if err := e.RX(p, &meta, time.Second); err != nil {
		t.Fatalf("rx: %v", err)
	}
	if meta.Flags&stream.HasTime == 0 {
		t.Fatal("HasTime not set")
	}
	if meta.Timestamp != 1000 {
		t.Fatalf("timestamp=%d, want 1000", meta.Timestamp)
	}
}

func TestRXHeaderSurvivesConfig(t *testing.T) {
	pattern := func(i int64, buf []byte) {
		binary.LittleEndian.PutUint64(buf[0:8], stream.SyncWord)
		binary.LittleEndian.PutUint64(buf[8:16], 1000)
	}
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096), sim.WithRXPattern(pattern))

	// Header control is session state: enabling it before the
	// direction is configured must stick, and reconfiguring must not
	// reset it.
	e := stream.NewEngine(board)
	e.SetRXHeader(true, true)
	if err := e.Config(dma.RX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := e.Config(dma.RX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("reconfig: %v", err)
	}

	p := make([]byte, 4096-stream.HeaderLen)
	var meta stream.Metadata
	if err := e.RX(p, &meta, time.Second); err != nil {
		t.Fatalf("rx: %v", err)
	}
	if meta.Flags&stream.HasTime == 0 {
		t.Fatal("HasTime not set")
	}
	if meta.Timestamp != 1000 {
		t.Fatalf("timestamp=%d, want 1000", meta.Timestamp)
	}
}

func TestTXHeaderSurvivesConfig(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096))

	e := stream.NewEngine(board)
	e.SetTXHeader(true)
	if err := e.Config(dma.TX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}

	p := make([]byte, 4096-stream.HeaderLen)
	meta := stream.Metadata{Flags: stream.HasTime, Timestamp: 0xdeadbeef}
	if err := e.TX(p, &meta, time.Second); err != nil {
		t.Fatalf("tx: %v", err)
	}
	raw, err := board.ReaderBuf(0)
	if err != nil {
		t.Fatalf("ReaderBuf: %v", err)
	}
	if binary.LittleEndian.Uint64(raw[0:8]) != stream.SyncWord {
		t.Fatalf("no sync word: % x", raw[0:8])
	}
	if got := binary.LittleEndian.Uint64(raw[8:16]); got != 0xdeadbeef {
		t.Fatalf("timestamp=%#x, want 0xdeadbeef", got)
	}
}

func TestRXTimeout(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096))

	e := stream.NewEngine(board)
	if err := e.Config(dma.RX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}

	p := make([]byte, 4096)
	start := time.Now()
	err := e.RX(p, nil, 50*time.Millisecond)
	elapsed := time.Since(start)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("got %v, want timeout", err)
	}
	if elapsed < 50*time.Millisecond || elapsed > 100*time.Millisecond {
		t.Fatalf("timeout after %s, want 50-100ms", elapsed)
	}
}

func TestZeroCopyBorrowCap(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(8, 4096))

	e := stream.NewEngine(board)
	if err := e.Config(dma.TX, stream.SC16Q11, 0, 0, 2, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}

	b1, err := e.GetBuffer(dma.TX, time.Second)
	if err != nil {
		t.Fatalf("borrow 1: %v", err)
	}
	if _, err := e.GetBuffer(dma.TX, time.Second); err != nil {
		t.Fatalf("borrow 2: %v", err)
	}
	_, err = e.GetBuffer(dma.TX, time.Second)
	if errcode.Of(err) != errcode.NoMem {
		t.Fatalf("borrow 3: got %v, want NoMem", err)
	}

	if err := e.SubmitBuffer(b1, b1.Capacity(stream.SC16Q11), nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.GetBuffer(dma.TX, time.Second); err != nil {
		t.Fatalf("borrow after submit: %v", err)
	}
}

func TestTXHeaderInjection(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096))

	e := stream.NewEngine(board)
	if err := e.Config(dma.TX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}
	e.SetTXHeader(true)

	buf, err := e.GetBuffer(dma.TX, time.Second)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if len(buf.Data) != 4096-stream.HeaderLen {
		t.Fatalf("payload capacity %d, want %d", len(buf.Data), 4096-stream.HeaderLen)
	}
	meta := &stream.Metadata{Timestamp: 0xDEADBEEF, Flags: stream.HasTime}
	if err := e.SubmitBuffer(buf, buf.Capacity(stream.SC16Q11), meta); err != nil {
		t.Fatalf("submit: %v", err)
	}

	raw, err := board.ReaderBuf(0)
	if err != nil {
		t.Fatalf("reader buf: %v", err)
	}
	if got := binary.LittleEndian.Uint64(raw[0:8]); got != stream.SyncWord {
		t.Fatalf("sync word=%#x, want %#x", got, stream.SyncWord)
	}
	if got := binary.LittleEndian.Uint64(raw[8:16]); got != 0xDEADBEEF {
		t.Fatalf("timestamp=%#x, want 0xDEADBEEF", got)
	}
}

func TestSubmitBufferZeroesTail(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(4, 4096))

	e := stream.NewEngine(board)
	if err := e.Config(dma.TX, stream.SC16Q11, 0, 0, 0, time.Second); err != nil {
		t.Fatalf("config: %v", err)
	}

	buf, err := e.GetBuffer(dma.TX, time.Second)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	for i := range buf.Data {
		buf.Data[i] = 0xff
	}
	// A partial submit: only the first 8 samples may leave the board.
	if err := e.SubmitBuffer(buf, 8, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	raw, err := board.ReaderBuf(0)
	if err != nil {
		t.Fatalf("reader buf: %v", err)
	}
	cut := 8 * stream.SC16Q11.Size()
	for i := 0; i < cut; i++ {
		if raw[i] != 0xff {
			t.Fatalf("sample byte %d = %#x, want 0xff", i, raw[i])
		}
	}
	for i := cut; i < len(raw); i++ {
		if raw[i] != 0 {
			t.Fatalf("stale byte %#x at offset %d", raw[i], i)
		}
	}
}

func TestConfigDefaultsAndRounding(t *testing.T) {
	board := sim.NewBoard(sim.WithDMAGeometry(16, 2048))

	e := stream.NewEngine(board)
	// Requested geometry is rounded to what the driver negotiated;
	// zero always means the driver default.
	if err := e.Config(dma.RX, stream.SC8Q7, 5, 1000, 64, 0); err != nil {
		t.Fatalf("config: %v", err)
	}
	if got := e.NumBuffers(dma.RX); got != 16 {
		t.Fatalf("num_buffers=%d, want 16", got)
	}
	if got := e.BufferSize(dma.RX); got != 2048 {
		t.Fatalf("buffer_size=%d, want 2048", got)
	}
	if got := e.NumTransfers(dma.RX); got != 16 {
		t.Fatalf("num_transfers=%d, want clamp to 16", got)
	}
	if got := e.FormatOf(dma.RX); got != stream.SC8Q7 {
		t.Fatalf("format=%v, want sc8_q7", got)
	}
}

func TestConfigBadFormat(t *testing.T) {
	board := sim.NewBoard()
	e := stream.NewEngine(board)
	err := e.Config(dma.RX, stream.Format(99), 0, 0, 0, 0)
	if errcode.Of(err) != errcode.Invalid {
		t.Fatalf("got %v, want invalid", err)
	}
}
