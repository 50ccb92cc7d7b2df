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

package transport

import (
	"fmt"
)

// ErrShortDatagram returned when a UDP reply is not a full frame
type ErrShortDatagram struct {
	Len int
}

func (e ErrShortDatagram) Error() string {
	return fmt.Sprintf("Short Etherbone datagram: %d bytes", e.Len)
}

// ErrNoDMA returned when a DMA operation is requested on a transport
// without a DMA engine
type ErrNoDMA struct {
	What string
}

func (e ErrNoDMA) Error() string {
	return fmt.Sprintf("Transport has no DMA engine: %s", e.What)
}

// ErrBufIndex returned when a DMA buffer index is out of range
type ErrBufIndex struct {
	Index, Count int
}

func (e ErrBufIndex) Error() string {
	return fmt.Sprintf("DMA buffer index out of range: %d not in [0, %d)", e.Index, e.Count)
}
