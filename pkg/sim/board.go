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

// Package sim models the board in memory: the CSR space with its
// latched and read-only blocks, the SI5351 behind the FSM I2C master,
// and the DMA rings with optional loopback. It backs the test suite
// and the Etherbone demo server; no hardware is required.
package sim

import (
	"sync"
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/csr"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

const (
	DefaultIdent       = "LiteX-M2SDR SoC / sim"
	DefaultBufferSize  = 8192
	DefaultBufferCount = 256
)

// Board implements transport.DMA entirely in memory.
type Board struct {
	mu sync.Mutex

	regs  map[uint32]uint32
	ident string

	dnaHigh uint32
	dnaLow  uint32

	// Time generator: offset relative to the host clock, plus the
	// value captured by the latch strobe.
	timeOffset  int64
	timeLatched uint64
	lastCtrl    uint32

	// SI5351 model behind the FSM I2C master.
	si5351   [256]byte
	si5351Wr []RegWrite
	nack     map[byte]bool

	// AD9361 register file behind the SPI bridge.
	ad9361 [0x400]byte

	// DMA rings.
	bufSize   int
	bufCount  int
	reader    [][]byte
	writer    [][]byte
	readerHW  int64
	writerHW  int64
	readerSW  int64
	writerSW  int64
	readerEn  bool
	writerEn  bool
	loopback  bool
	rxSilent  bool // when set, the writer ring never produces data
	rxPattern func(i int64, buf []byte)
}

// RegWrite records one SI5351 register write observed by the model.
type RegWrite struct {
	Reg byte
	Val byte
}

var _ transport.DMA = (*Board)(nil)

type Option func(*Board)

func WithIdent(ident string) Option {
	return func(b *Board) { b.ident = ident }
}

func WithDMAGeometry(count, size int) Option {
	return func(b *Board) {
		b.bufCount = count
		b.bufSize = size
	}
}

// WithNACK makes the SI5351 model NACK transactions addressing reg.
func WithNACK(reg byte) Option {
	return func(b *Board) { b.nack[reg] = true }
}

// WithRXPattern makes the writer ring produce data on demand; the
// callback fills buffer number i.
func WithRXPattern(fn func(i int64, buf []byte)) Option {
	return func(b *Board) { b.rxPattern = fn }
}

func NewBoard(opts ...Option) *Board {
	b := &Board{
		regs:     make(map[uint32]uint32),
		ident:    DefaultIdent,
		dnaHigh:  0x01234567,
		dnaLow:   0x89abcdef,
		nack:     make(map[byte]bool),
		bufSize:  DefaultBufferSize,
		bufCount: DefaultBufferCount,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.reader = make([][]byte, b.bufCount)
	b.writer = make([][]byte, b.bufCount)
	for i := 0; i < b.bufCount; i++ {
		b.reader[i] = make([]byte, b.bufSize)
		b.writer[i] = make([]byte, b.bufSize)
	}

	b.regs[csr.CapAPIVersion] = 0x00010000 // 1.0
	b.regs[csr.CapFeatures] = csr.FeaturePCIe | csr.FeatureEth | csr.FeatureGPIO
	b.regs[csr.CapBoardInfo] = 0x4d325352 // "M2SR"
	// SI5351 reports system init done and PLLs locked.
	b.si5351[1] = 0x00
	return b
}

func (b *Board) Read32(addr uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case addr >= csr.IdentBase && addr < csr.IdentBase+4*csr.IdentMaxLen:
		i := int(addr-csr.IdentBase) / 4
		if i < len(b.ident) {
			return uint32(b.ident[i]), nil
		}
		return 0, nil
	case addr == csr.DNAHigh:
		return b.dnaHigh, nil
	case addr == csr.DNALow:
		return b.dnaLow, nil
	case addr == csr.TimeHigh:
		return uint32(b.timeLatched >> 32), nil
	case addr == csr.TimeLow:
		return uint32(b.timeLatched), nil
	case addr == csr.I2CStatus:
		return b.regs[csr.I2CStatus], nil
	case addr == csr.SPIStatus:
		// Transfers complete instantly.
		return csr.SPIStatusDone, nil
	case addr == csr.GPIOIn:
		ctrl := b.regs[csr.GPIOControl]
		if ctrl&csr.GPIOCtrlLoopback != 0 {
			return b.regs[csr.GPIOOut] & b.regs[csr.GPIOOE] & 0xf, nil
		}
		return 0, nil
	}
	return b.regs[addr], nil
}

func (b *Board) Write32(addr uint32, val uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch addr {
	case csr.TimeControl:
		if val&csr.TimeControlLatch != 0 && b.lastCtrl&csr.TimeControlLatch == 0 {
			b.timeLatched = uint64(time.Now().UnixNano() + b.timeOffset)
		}
		if val&csr.TimeControlLoad != 0 {
			loaded := uint64(b.regs[csr.TimeHigh])<<32 | uint64(b.regs[csr.TimeLow])
			b.timeOffset = int64(loaded) - time.Now().UnixNano()
		}
		b.lastCtrl = val
		return nil
	case csr.I2CActive:
		if val&1 != 0 {
			b.i2cTransact()
		}
		return nil
	case csr.SPIControl:
		if val&csr.SPIControlStart != 0 {
			b.spiTransact()
		}
		return nil
	}
	b.regs[addr] = val
	return nil
}

// i2cTransact executes one FSM master transaction against the SI5351
// model. Write: tx=2 (register, datum). Read: tx=1 (register), rx=1.
func (b *Board) i2cTransact() {
	settings := b.regs[csr.I2CSettings]
	txLen := settings & 0xff
	rxLen := (settings >> 8) & 0xff
	data := b.regs[csr.I2CData]

	status := uint32(csr.I2CStatusTXReady)
	switch {
	case txLen == 2 && rxLen == 0:
		reg := byte(data >> 8)
		val := byte(data)
		// The log records attempted writes, NACKed or not.
		b.si5351Wr = append(b.si5351Wr, RegWrite{Reg: reg, Val: val})
		if b.nack[reg] {
			status |= csr.I2CStatusNACK
			break
		}
		b.si5351[reg] = val
	case txLen == 1 && rxLen == 1:
		reg := byte(data)
		if b.nack[reg] {
			status |= csr.I2CStatusNACK
			break
		}
		b.regs[csr.I2CData] = uint32(b.si5351[reg])
		status |= csr.I2CStatusRXReady
	default:
		status |= csr.I2CStatusNACK
	}
	b.regs[csr.I2CStatus] = status
}

// spiTransact executes one 24-bit transfer against the AD9361 model:
// bit 23 selects write, bits 17:8 the register, bits 7:0 the datum.
func (b *Board) spiTransact() {
	mosi := b.regs[csr.SPIMOSI]
	reg := (mosi >> 8) & 0x3ff
	if mosi&(1<<23) != 0 {
		b.ad9361[reg] = byte(mosi)
		return
	}
	b.regs[csr.SPIMISO] = uint32(b.ad9361[reg])
}

func (b *Board) Close() error { return nil }

// Poke sets a raw register value, bypassing the blocks with modelled
// behavior. Test helper.
func (b *Board) Poke(addr uint32, val uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[addr] = val
}

// Peek reads a raw register value. Test helper.
func (b *Board) Peek(addr uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[addr]
}

// AD9361Reg returns the current value of an AD9361 register.
func (b *Board) AD9361Reg(reg uint16) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ad9361[reg&0x3ff]
}

// SI5351Reg returns the current value of an SI5351 register.
func (b *Board) SI5351Reg(reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.si5351[reg]
}

// SI5351Writes returns the observed register writes in order.
func (b *Board) SI5351Writes() []RegWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RegWrite, len(b.si5351Wr))
	copy(out, b.si5351Wr)
	return out
}
