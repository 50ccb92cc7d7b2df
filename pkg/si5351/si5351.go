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

// Package si5351 drives the SI5351 clock generator over I2C. Two
// hardware flavors sit behind the Bus interface: the FSM master in the
// FPGA and bit-banged SCL/SDA lines. Only single-byte register
// transactions are supported; the multi-byte capability of the
// bit-banged lines is deliberately not exposed until the hardware
// interface settles.
package si5351

import (
	"time"
)

const (
	// DefaultAddr is the 7-bit I2C address of the SI5351 on the board.
	DefaultAddr = 0x60

	// Bounded waits: flags and lock polls give up after WaitBound,
	// polling every PollPeriod.
	WaitBound  = 100 * time.Millisecond
	PollPeriod = 100 * time.Microsecond
)

// SI5351 register numbers used by the bulk configuration sequence.
const (
	RegDeviceStatus   = 0 // bit 7: SYS_INIT
	RegIntStatus      = 1 // bits 5, 7: PLL loss-of-lock
	RegIntMask        = 2
	RegOutputEnable   = 3 // 0xff: all disabled
	RegDriverFirst    = 16
	RegDriverLast     = 23
	RegPLLReset       = 177
	DriverPowerDown   = 0x80
	PLLResetBoth      = 0xac
	StatusSysInit     = 1 << 7
	StatusLossOfLockA = 1 << 5
	StatusLossOfLockB = 1 << 7
)

// Bus is the single-byte register access contract shared by the FSM
// and bit-banged backends.
type Bus interface {
	// ReadReg reads one register of the device at the 7-bit address.
	ReadReg(addr byte, reg byte) (byte, error)
	// WriteReg writes one register of the device at the 7-bit address.
	WriteReg(addr byte, reg byte, val byte) error
	// Probe reports whether a device acknowledges the address.
	Probe(addr byte) bool
	// Reset returns the bus lines to a known idle state.
	Reset() error
}

// RegWrite is one entry of a bulk configuration table.
type RegWrite struct {
	Reg byte
	Val byte
}

// Scan probes the usable 7-bit address range and returns the addresses
// that acknowledged.
func Scan(bus Bus) []byte {
	var found []byte
	for addr := byte(0x08); addr <= 0x77; addr++ {
		if bus.Probe(addr) {
			found = append(found, addr)
		}
	}
	return found
}
