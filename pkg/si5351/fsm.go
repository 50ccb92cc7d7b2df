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

// FSM drives the hardware I2C master: lengths and slave address are
// written to CSRs, the transaction is started with the active bit, and
// completion is signalled through the TX_READY/RX_READY flags.
type FSM struct {
	t transport.Transport
}

var _ Bus = (*FSM)(nil)

func NewFSM(t transport.Transport) *FSM {
	return &FSM{t: t}
}

func (f *FSM) start(txLen, rxLen uint32, addr byte, data uint32) error {
	if err := f.t.Write32(csr.I2CSettings, txLen|rxLen<<8); err != nil {
		return err
	}
	if err := f.t.Write32(csr.I2CSlave, uint32(addr)); err != nil {
		return err
	}
	if err := f.t.Write32(csr.I2CData, data); err != nil {
		return err
	}
	return f.t.Write32(csr.I2CActive, 1)
}

// waitFlags polls the status register until the wanted ready flags are
// set, a NACK is reported, or the bound elapses.
func (f *FSM) waitFlags(want uint32) (uint32, error) {
	deadline := time.Now().Add(WaitBound)
	for {
		status, err := f.t.Read32(csr.I2CStatus)
		if err != nil {
			return 0, err
		}
		if status&csr.I2CStatusNACK != 0 {
			return status, errcode.Wrap(errcode.IO, ErrNACK{})
		}
		if status&want == want {
			return status, nil
		}
		if time.Now().After(deadline) {
			return status, errcode.Wrap(errcode.Timeout, ErrFlagWait{Want: want})
		}
		time.Sleep(PollPeriod)
	}
}

func (f *FSM) WriteReg(addr byte, reg byte, val byte) error {
	if err := f.start(2, 0, addr, uint32(reg)<<8|uint32(val)); err != nil {
		return err
	}
	_, err := f.waitFlags(csr.I2CStatusTXReady)
	return err
}

func (f *FSM) ReadReg(addr byte, reg byte) (byte, error) {
	if err := f.start(1, 1, addr, uint32(reg)); err != nil {
		return 0, err
	}
	if _, err := f.waitFlags(csr.I2CStatusTXReady | csr.I2CStatusRXReady); err != nil {
		return 0, err
	}
	data, err := f.t.Read32(csr.I2CData)
	if err != nil {
		return 0, err
	}
	return byte(data), nil
}

func (f *FSM) Probe(addr byte) bool {
	_, err := f.ReadReg(addr, RegDeviceStatus)
	return err == nil
}

// Reset clears the active bit; the master returns to idle on its own.
func (f *FSM) Reset() error {
	return f.t.Write32(csr.I2CActive, 0)
}

// WriteRegs is not available on the FSM master, which handles one
// data byte per transaction.
func (f *FSM) WriteRegs(addr byte, reg byte, vals []byte) error {
	return errcode.New(errcode.Unsupported, "fsm i2c: multi-byte write")
}

// ReadRegs is not available on the FSM master.
func (f *FSM) ReadRegs(addr byte, reg byte, n int) ([]byte, error) {
	return nil, errcode.New(errcode.Unsupported, "fsm i2c: multi-byte read")
}
