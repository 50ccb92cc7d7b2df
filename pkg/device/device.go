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

// Package device is the session layer: it parses device identifiers,
// opens the matching transport, and exposes the board-level operations
// on top of it: identification, capabilities, time, GPIO, DMA-header
// control, streaming and RF configuration.
//
// A session is single-owner: one goroutine at a time may invoke its
// operations. The streaming calls block the caller; the session spawns
// no goroutines of its own.
package device

import (
	"fmt"
	"strings"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/csr"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/si5351"
	"github.com/litex-hub/go-m2sdr/pkg/stream"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

// Capabilities is the immutable snapshot read from the capability
// register block.
type Capabilities struct {
	APIVersion uint32
	Features   uint32
	BoardInfo  uint32
	PCIeInfo   uint32
	EthInfo    uint32
	SATAInfo   uint32
}

// Has reports whether a feature bit from pkg/csr is present.
func (c Capabilities) Has(feature uint32) bool {
	return c.Features&feature != 0
}

func (c Capabilities) String() string {
	names := []struct {
		bit  uint32
		name string
	}{
		{csr.FeaturePCIe, "pcie"},
		{csr.FeatureEth, "eth"},
		{csr.FeatureSATA, "sata"},
		{csr.FeatureGPIO, "gpio"},
		{csr.FeatureWR, "white-rabbit"},
		{csr.FeatureJTAGBone, "jtagbone"},
	}
	var have []string
	for _, n := range names {
		if c.Has(n.bit) {
			have = append(have, n.name)
		}
	}
	return fmt.Sprintf("api %d.%d features [%s]",
		c.APIVersion>>16, c.APIVersion&0xffff, strings.Join(have, " "))
}

// Device is an open session. At most one transport variant is held
// and it never changes after open.
type Device struct {
	id     Identifier
	t      transport.Transport
	dma    transport.DMA // nil for Etherbone sessions
	engine *stream.Engine
	i2c    si5351.Bus
	caps   *Capabilities
	rf     *RFConfig
	closed bool
}

// Option adjusts how a session is opened.
type Option func(*openOptions)

type openOptions struct {
	tcp        bool
	i2cBackend string
}

// WithTCP selects the TCP Etherbone flavor instead of UDP.
func WithTCP() Option {
	return func(o *openOptions) { o.tcp = true }
}

// WithI2CBackend selects the SI5351 I2C backend,
// config.I2CBackendFSM or config.I2CBackendBitBang.
func WithI2CBackend(backend string) Option {
	return func(o *openOptions) { o.i2cBackend = backend }
}

// Open parses the identifier, opens the matching transport and builds
// the session around it.
func Open(spec string, opts ...Option) (*Device, error) {
	o := openOptions{i2cBackend: config.I2CBackendFSM}
	for _, opt := range opts {
		opt(&o)
	}

	id, err := ParseIdentifier(spec)
	if err != nil {
		return nil, err
	}

	var t transport.Transport
	if id.Local() {
		t, err = transport.OpenCharDev(id.Path)
	} else if o.tcp {
		t, err = transport.DialEtherboneTCP(id.Host, id.Port)
	} else {
		t, err = transport.DialEtherboneUDP(id.Host, id.Port)
	}
	if err != nil {
		return nil, err
	}

	d := attach(id, t)
	if o.i2cBackend == config.I2CBackendBitBang {
		d.i2c = si5351.NewBitBang(t)
	}
	return d, nil
}

// Attach builds a session around an already-open transport. The
// session takes ownership and closes the transport with Close.
func Attach(t transport.Transport) *Device {
	return attach(Identifier{}, t)
}

func attach(id Identifier, t transport.Transport) *Device {
	d := &Device{
		id:  id,
		t:   t,
		i2c: si5351.NewFSM(t),
	}
	if dma, ok := t.(transport.DMA); ok {
		d.dma = dma
		d.engine = stream.NewEngine(dma)
	}
	return d
}

// Close disables any enabled rings and closes the transport.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.engine != nil {
		if err := d.engine.Close(); err != nil {
			return err
		}
	}
	return d.t.Close()
}

// Transport exposes the raw register HAL of the session.
func (d *Device) Transport() transport.Transport {
	return d.t
}

// I2C exposes the SI5351 bus of the session.
func (d *Device) I2C() si5351.Bus {
	return d.i2c
}

// Stream returns the streaming engine, or an error when the transport
// has no DMA rings (Etherbone sessions).
func (d *Device) Stream() (*stream.Engine, error) {
	if d.engine == nil {
		return nil, errcode.Wrap(errcode.Unsupported, ErrNoStreaming{})
	}
	return d.engine, nil
}

// SetDMALoopback routes the TX ring back into the RX ring inside the
// device.
func (d *Device) SetDMALoopback(enable bool) error {
	if d.dma == nil {
		return errcode.Wrap(errcode.Unsupported, ErrNoStreaming{})
	}
	return d.dma.SetLoopback(enable)
}

// Identifier reads the identification string: the lowest byte of each
// word of the identifier block, up to a NUL or the block size, with
// trailing CR/LF trimmed.
func (d *Device) Identifier() (string, error) {
	var sb strings.Builder
	for i := 0; i < csr.IdentMaxLen; i++ {
		v, err := d.t.Read32(csr.IdentBase + uint32(4*i))
		if err != nil {
			return "", err
		}
		b := byte(v)
		if b == 0 {
			break
		}
		sb.WriteByte(b)
	}
	return strings.TrimRight(sb.String(), "\r\n"), nil
}

// Serial forms the serial number from the two DNA words.
func (d *Device) Serial() (string, error) {
	hi, err := d.t.Read32(csr.DNAHigh)
	if err != nil {
		return "", err
	}
	lo, err := d.t.Read32(csr.DNALow)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x%08x", hi, lo), nil
}

// Capabilities reads the capability block once and caches it for the
// lifetime of the session.
func (d *Device) Capabilities() (Capabilities, error) {
	if d.caps != nil {
		return *d.caps, nil
	}
	var caps Capabilities
	for _, r := range []struct {
		addr uint32
		dst  *uint32
	}{
		{csr.CapAPIVersion, &caps.APIVersion},
		{csr.CapFeatures, &caps.Features},
		{csr.CapBoardInfo, &caps.BoardInfo},
		{csr.CapPCIeInfo, &caps.PCIeInfo},
		{csr.CapEthInfo, &caps.EthInfo},
		{csr.CapSATAInfo, &caps.SATAInfo},
	} {
		v, err := d.t.Read32(r.addr)
		if err != nil {
			return Capabilities{}, err
		}
		*r.dst = v
	}
	d.caps = &caps
	return caps, nil
}

// Time latches the time generator and reads the nanosecond counter.
func (d *Device) Time() (uint64, error) {
	if err := csr.SetBits(d.t, csr.TimeControl, csr.TimeControlLatch); err != nil {
		return 0, err
	}
	if err := csr.ClearBits(d.t, csr.TimeControl, csr.TimeControlLatch); err != nil {
		return 0, err
	}
	return csr.Read64(d.t, csr.TimeHigh, csr.TimeLow)
}

// SetTime loads the nanosecond counter.
func (d *Device) SetTime(ns uint64) error {
	if err := csr.Write64(d.t, csr.TimeHigh, csr.TimeLow, ns); err != nil {
		return err
	}
	if err := d.t.Write32(csr.TimeControl, csr.TimeControlLoad); err != nil {
		return err
	}
	return d.t.Write32(csr.TimeControl, 0)
}

func headerBits(insert bool) uint32 {
	// Bit 0 enables the block whenever it is addressed; bit 1 selects
	// header insertion.
	v := uint32(csr.HeaderCtrlEnable)
	if insert {
		v |= csr.HeaderCtrlInsert
	}
	return v
}

// SetRXHeader controls DMA-header handling on the RX path: whether the
// device prepends headers, and whether the engine strips them from the
// payload handed to clients.
func (d *Device) SetRXHeader(enable, strip bool) error {
	if err := d.t.Write32(csr.HeaderRXControl, headerBits(enable)); err != nil {
		return err
	}
	if d.engine != nil {
		d.engine.SetRXHeader(enable, strip)
	}
	return nil
}

// SetTXHeader controls DMA-header insertion on the TX path.
func (d *Device) SetTXHeader(enable bool) error {
	if err := d.t.Write32(csr.HeaderTXControl, headerBits(enable)); err != nil {
		return err
	}
	if d.engine != nil {
		d.engine.SetTXHeader(enable)
	}
	return nil
}

func (d *Device) needGPIO() error {
	caps, err := d.Capabilities()
	if err != nil {
		return err
	}
	if !caps.Has(csr.FeatureGPIO) {
		return errcode.Wrap(errcode.Unsupported, ErrFeature{Name: "gpio"})
	}
	return nil
}

// ConfigureGPIO sets the GPIO block mode: enabled, internally looped
// back, and whether the pin values come from the CSRs or from the
// upper nibbles of the DMA samples.
func (d *Device) ConfigureGPIO(enable, loopback, dmaSource bool) error {
	if err := d.needGPIO(); err != nil {
		return err
	}
	var ctrl uint32
	if enable {
		ctrl |= csr.GPIOCtrlEnable
	}
	if loopback {
		ctrl |= csr.GPIOCtrlLoopback
	}
	if dmaSource {
		ctrl |= csr.GPIOCtrlSource
	}
	return d.t.Write32(csr.GPIOControl, ctrl)
}

// SetGPIOOut writes the 4-bit output value and output-enable masks.
// Only meaningful in CSR-source mode.
func (d *Device) SetGPIOOut(value, oe uint32) error {
	if err := d.needGPIO(); err != nil {
		return err
	}
	if err := d.t.Write32(csr.GPIOOut, value&0xf); err != nil {
		return err
	}
	return d.t.Write32(csr.GPIOOE, oe&0xf)
}

// GPIOIn reads the 4-bit input value.
func (d *Device) GPIOIn() (uint32, error) {
	if err := d.needGPIO(); err != nil {
		return 0, err
	}
	v, err := d.t.Read32(csr.GPIOIn)
	return v & 0xf, err
}
