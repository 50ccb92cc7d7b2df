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

package stream

// Format is the on-wire I/Q sample layout.
type Format int

const (
	// SC16Q11 is interleaved int16 I/Q, Q11 fixed point.
	SC16Q11 Format = iota
	// SC8Q7 is interleaved int8 I/Q, Q7 fixed point.
	SC8Q7
)

// Size returns the number of bytes per complex sample.
func (f Format) Size() int {
	switch f {
	case SC16Q11:
		return 4
	case SC8Q7:
		return 2
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case SC16Q11:
		return "sc16_q11"
	case SC8Q7:
		return "sc8_q7"
	}
	return "unknown"
}

// Flags qualify per-transfer metadata.
type Flags uint32

const (
	// HasTime marks the Timestamp field as valid.
	HasTime Flags = 1 << 0
	// Underflowed reports that the TX hardware outran the software
	// during the transfer.
	Underflowed Flags = 1 << 1
	// Overflowed reports that RX software fell behind the hardware
	// during the transfer.
	Overflowed Flags = 1 << 2
)

// Metadata is the per-transfer record exchanged with RX/TX calls.
type Metadata struct {
	Timestamp uint64 // nanoseconds
	Flags     Flags
}
