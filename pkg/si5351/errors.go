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
	"fmt"
)

// ErrNACK returned when the device does not acknowledge a transaction
type ErrNACK struct{}

func (e ErrNACK) Error() string {
	return "I2C transaction not acknowledged"
}

// ErrFlagWait returned when the FSM master flags do not assert in time
type ErrFlagWait struct {
	Want uint32
}

func (e ErrFlagWait) Error() string {
	return fmt.Sprintf("I2C master flags %#x not asserted within bound", e.Want)
}

// ErrLockWait returned when a status register does not clear in time
type ErrLockWait struct {
	Reg  byte
	Mask byte
	Last byte
}

func (e ErrLockWait) Error() string {
	return fmt.Sprintf("Register %d bits %#x still set after bound: last read %#x", e.Reg, e.Mask, e.Last)
}
