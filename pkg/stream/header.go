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

import (
	"encoding/binary"
)

const (
	// HeaderLen is the optional per-buffer DMA header: an 8-byte sync
	// word followed by an 8-byte nanosecond timestamp, both
	// little-endian on the wire. Not to be confused with Etherbone
	// framing, which is big-endian.
	HeaderLen = 16

	// SyncWord marks a DMA-header frame.
	SyncWord uint64 = 0x5aa55aa55aa55aa5
)

// putHeader writes the sync word and timestamp at the start of buf.
func putHeader(buf []byte, timestamp uint64) {
	binary.LittleEndian.PutUint64(buf[0:8], SyncWord)
	binary.LittleEndian.PutUint64(buf[8:16], timestamp)
}

// parseHeader checks for the sync word and extracts the timestamp.
func parseHeader(buf []byte) (uint64, bool) {
	if len(buf) < HeaderLen {
		return 0, false
	}
	if binary.LittleEndian.Uint64(buf[0:8]) != SyncWord {
		return 0, false
	}
	return binary.LittleEndian.Uint64(buf[8:16]), true
}
