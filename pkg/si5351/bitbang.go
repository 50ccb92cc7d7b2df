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

package si5351

import (
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/csr"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

// BitBang drives SCL and SDA directly through the raw line register.
// SDA is open-drain: releasing the output-enable lets the pull-up
// raise the line.
type BitBang struct {
	t     transport.Transport
	delay time.Duration // quarter of the SCL cycle
	out   uint32        // shadow of the line register
}

var _ Bus = (*BitBang)(nil)

func NewBitBang(t transport.Transport) *BitBang {
	return &BitBang{
		t:     t,
		delay: 2500 * time.Nanosecond, // ~100 kHz SCL
		out:   csr.I2CRawSCL,
	}
}

func (b *BitBang) lines(scl, driveSDA, sda bool) error {
	b.out = 0
	if scl {
		b.out |= csr.I2CRawSCL
	}
	if driveSDA {
		b.out |= csr.I2CRawSDAOE
	}
	if sda {
		b.out |= csr.I2CRawSDA
	}
	if err := b.t.Write32(csr.I2CRawOut, b.out); err != nil {
		return err
	}
	time.Sleep(b.delay)
	return nil
}

func (b *BitBang) sda() (bool, error) {
	v, err := b.t.Read32(csr.I2CRawIn)
	if err != nil {
		return false, err
	}
	return v&csr.I2CRawSDAIn != 0, nil
}

func (b *BitBang) begin() error {
	// SDA falls while SCL is high.
	if err := b.lines(true, false, false); err != nil {
		return err
	}
	if err := b.lines(true, true, false); err != nil {
		return err
	}
	return b.lines(false, true, false)
}

func (b *BitBang) end() error {
	// SDA rises while SCL is high.
	if err := b.lines(false, true, false); err != nil {
		return err
	}
	if err := b.lines(true, true, false); err != nil {
		return err
	}
	return b.lines(true, false, false)
}

// writeByte shifts out one byte MSB first and samples the ACK bit.
func (b *BitBang) writeByte(v byte) (bool, error) {
	for i := 7; i >= 0; i-- {
		bit := v&(1<<uint(i)) != 0
		// Drive low for 0, release for 1.
		if err := b.lines(false, !bit, false); err != nil {
			return false, err
		}
		if err := b.lines(true, !bit, false); err != nil {
			return false, err
		}
		if err := b.lines(false, !bit, false); err != nil {
			return false, err
		}
	}
	// Release SDA and clock the ACK bit in.
	if err := b.lines(false, false, false); err != nil {
		return false, err
	}
	if err := b.lines(true, false, false); err != nil {
		return false, err
	}
	ackLow, err := b.sda()
	if err != nil {
		return false, err
	}
	if err := b.lines(false, false, false); err != nil {
		return false, err
	}
	return !ackLow, nil
}

// readByte shifts in one byte MSB first and sends the ACK/NACK bit.
func (b *BitBang) readByte(ack bool) (byte, error) {
	var v byte
	for i := 7; i >= 0; i-- {
		if err := b.lines(true, false, false); err != nil {
			return 0, err
		}
		high, err := b.sda()
		if err != nil {
			return 0, err
		}
		if high {
			v |= 1 << uint(i)
		}
		if err := b.lines(false, false, false); err != nil {
			return 0, err
		}
	}
	// ACK: pull SDA low; NACK: leave it released.
	if err := b.lines(false, ack, false); err != nil {
		return 0, err
	}
	if err := b.lines(true, ack, false); err != nil {
		return 0, err
	}
	if err := b.lines(false, false, false); err != nil {
		return 0, err
	}
	return v, nil
}

func (b *BitBang) WriteReg(addr byte, reg byte, val byte) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()
	for _, v := range []byte{addr << 1, reg, val} {
		ack, err := b.writeByte(v)
		if err != nil {
			return err
		}
		if !ack {
			return errcode.Wrap(errcode.IO, ErrNACK{})
		}
	}
	return nil
}

func (b *BitBang) ReadReg(addr byte, reg byte) (byte, error) {
	if err := b.begin(); err != nil {
		return 0, err
	}
	defer b.end()
	for _, v := range []byte{addr << 1, reg} {
		ack, err := b.writeByte(v)
		if err != nil {
			return 0, err
		}
		if !ack {
			return 0, errcode.Wrap(errcode.IO, ErrNACK{})
		}
	}
	// Repeated start, then the read phase.
	if err := b.begin(); err != nil {
		return 0, err
	}
	ack, err := b.writeByte(addr<<1 | 1)
	if err != nil {
		return 0, err
	}
	if !ack {
		return 0, errcode.Wrap(errcode.IO, ErrNACK{})
	}
	return b.readByte(false)
}

func (b *BitBang) Probe(addr byte) bool {
	if err := b.begin(); err != nil {
		return false
	}
	defer b.end()
	ack, err := b.writeByte(addr << 1)
	return err == nil && ack
}

// Reset clocks out nine cycles with SDA released so a device stuck
// mid-transfer lets go of the bus, then issues a stop.
func (b *BitBang) Reset() error {
	for i := 0; i < 9; i++ {
		if err := b.lines(false, false, false); err != nil {
			return err
		}
		if err := b.lines(true, false, false); err != nil {
			return err
		}
	}
	return b.end()
}

// WriteRegs is not exposed; the library's I2C contract is single-byte.
func (b *BitBang) WriteRegs(addr byte, reg byte, vals []byte) error {
	return errcode.New(errcode.Unsupported, "bitbang i2c: multi-byte write")
}

// ReadRegs is not exposed; the library's I2C contract is single-byte.
func (b *BitBang) ReadRegs(addr byte, reg byte, n int) ([]byte, error) {
	return nil, errcode.New(errcode.Unsupported, "bitbang i2c: multi-byte read")
}
