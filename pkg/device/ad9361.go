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

package device

import (
	"time"

	"github.com/litex-hub/go-m2sdr/pkg/csr"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

const (
	spiWaitBound  = 100 * time.Millisecond
	spiPollPeriod = 100 * time.Microsecond
)

// SPIWrite is one entry of an AD9361 register table. The tables
// themselves are opaque vendor data; this layer only shifts them out.
type SPIWrite struct {
	Reg uint16
	Val uint8
}

// AD9361 shifts 24-bit transfers through the FPGA SPI bridge: bit 23
// selects write, bits 17:8 carry the register, bits 7:0 the datum.
type AD9361 struct {
	t transport.Transport
}

func NewAD9361(t transport.Transport) *AD9361 {
	return &AD9361{t: t}
}

func (a *AD9361) transfer(word uint32) error {
	if err := a.t.Write32(csr.SPIMOSI, word); err != nil {
		return err
	}
	if err := a.t.Write32(csr.SPIControl, csr.SPIControlLength|csr.SPIControlStart); err != nil {
		return err
	}
	deadline := time.Now().Add(spiWaitBound)
	for {
		status, err := a.t.Read32(csr.SPIStatus)
		if err != nil {
			return err
		}
		if status&csr.SPIStatusDone != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errcode.New(errcode.Timeout, "ad9361: spi transfer did not complete")
		}
		time.Sleep(spiPollPeriod)
	}
}

func (a *AD9361) WriteReg(reg uint16, val uint8) error {
	return a.transfer(1<<23 | uint32(reg&0x3ff)<<8 | uint32(val))
}

func (a *AD9361) ReadReg(reg uint16) (uint8, error) {
	if err := a.transfer(uint32(reg&0x3ff) << 8); err != nil {
		return 0, err
	}
	miso, err := a.t.Read32(csr.SPIMISO)
	if err != nil {
		return 0, err
	}
	return uint8(miso), nil
}

// WriteTable applies a register table in order.
func (a *AD9361) WriteTable(table []SPIWrite) error {
	for _, w := range table {
		if err := a.WriteReg(w.Reg, w.Val); err != nil {
			return err
		}
	}
	return nil
}
