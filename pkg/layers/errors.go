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

package layers

import (
	"fmt"
)

// ErrShortFrame returned when a datagram is shorter than a single-word frame
type ErrShortFrame struct {
	Len int
}

func (e ErrShortFrame) Error() string {
	return fmt.Sprintf("Short Etherbone frame: %d bytes, want %d", e.Len, EtherboneFrameLen)
}

// ErrBadMagic returned when the frame does not start with the Etherbone magic
type ErrBadMagic struct {
	Got [2]byte
}

func (e ErrBadMagic) Error() string {
	return fmt.Sprintf("Bad Etherbone magic: %02x %02x", e.Got[0], e.Got[1])
}

// ErrBadCounts returned when the frame carries neither one write nor one read
type ErrBadCounts struct {
	WCount, RCount byte
}

func (e ErrBadCounts) Error() string {
	return fmt.Sprintf("Unsupported Etherbone counts: wcount=%d rcount=%d", e.WCount, e.RCount)
}
