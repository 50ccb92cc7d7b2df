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

	"github.com/litex-hub/go-m2sdr/pkg/log"
)

// Configure applies a full register table to the device. Individual
// write failures are logged and the sequence continues: an intermediate
// failure still leaves the clock tree in a safer state than aborting
// half way, and arbitration blips are often recovered by the writes
// that follow. The final PLL-lock wait is the authoritative success
// signal.
func Configure(bus Bus, addr byte, table []RegWrite) error {
	if err := bus.Reset(); err != nil {
		log.Warning("si5351: bus reset: %v", err)
	}

	if err := waitRegClear(bus, addr, RegDeviceStatus, StatusSysInit); err != nil {
		log.Warning("si5351: sys_init wait: %v", err)
	}

	// Disable outputs and power down the drivers before touching the
	// PLL configuration.
	writeLogged(bus, addr, RegOutputEnable, 0xff)
	for reg := byte(RegDriverFirst); reg <= RegDriverLast; reg++ {
		writeLogged(bus, addr, reg, DriverPowerDown)
	}
	writeLogged(bus, addr, RegIntMask, 0x00)

	for _, w := range table {
		writeLogged(bus, addr, w.Reg, w.Val)
	}

	writeLogged(bus, addr, RegPLLReset, PLLResetBoth)

	err := waitRegClear(bus, addr, RegIntStatus, StatusLossOfLockA|StatusLossOfLockB)
	if err != nil {
		log.Warning("si5351: pll lock wait: %v", err)
	}

	writeLogged(bus, addr, RegOutputEnable, 0x00)
	return err
}

func writeLogged(bus Bus, addr byte, reg byte, val byte) {
	if err := bus.WriteReg(addr, reg, val); err != nil {
		log.Warning("si5351: write reg %d: %v", reg, err)
	}
}

// waitRegClear polls until the masked bits of a register all read
// zero, bounded by WaitBound.
func waitRegClear(bus Bus, addr byte, reg byte, mask byte) error {
	deadline := time.Now().Add(WaitBound)
	for {
		v, err := bus.ReadReg(addr, reg)
		if err == nil && v&mask == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return ErrLockWait{Reg: reg, Mask: mask, Last: v}
		}
		time.Sleep(PollPeriod)
	}
}
