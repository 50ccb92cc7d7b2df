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
	"runtime"

	"golang.org/x/sys/unix"
)

// mmapHandle owns a shared mapping of the driver's DMA region.
type mmapHandle struct {
	data []byte
}

func mmapShared(fd int, length int) (*mmapHandle, error) {
	data, err := unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	h := &mmapHandle{data: data}
	runtime.SetFinalizer(h, (*mmapHandle).Close)
	return h, nil
}

func (h *mmapHandle) Close() error {
	if h == nil || h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	runtime.SetFinalizer(h, nil)
	return unix.Munmap(data)
}

// Slice returns the [off, off+n) window of the mapping. The slice
// aliases memory shared with the device.
func (h *mmapHandle) Slice(off, n int) []byte {
	return h.data[off : off+n : off+n]
}
