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
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/log"
)

// CharDev drives the board through the kernel DMA character device:
// CSR accesses via ioctl, sample buffers via a shared mapping of
// 2*N*B bytes with the reader (TX) half first.
type CharDev struct {
	path string
	fd   int
	info DMAInfo
	mem  *mmapHandle
}

var _ DMA = (*CharDev)(nil)

// OpenCharDev opens the device read-write with close-on-exec and maps
// the DMA region using the driver-negotiated geometry.
func OpenCharDev(path string) (*CharDev, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errcode.Wrap(errcode.IO, err)
	}
	d := &CharDev{path: path, fd: fd}

	var arg mmapInfoArg
	if err := doIoctl(fd, ioctlMmapInfo, unsafe.Pointer(&arg)); err != nil {
		unix.Close(fd)
		return nil, errcode.Wrap(errcode.IO, err)
	}
	d.info = DMAInfo{
		BufferSize:  int(arg.BufferSize),
		BufferCount: int(arg.BufferCount),
	}

	mem, err := mmapShared(fd, 2*d.info.BufferCount*d.info.BufferSize)
	if err != nil {
		unix.Close(fd)
		return nil, errcode.Wrap(errcode.IO, err)
	}
	d.mem = mem

	log.Debug("CharDev %s: %d buffers of %d bytes per direction",
		path, d.info.BufferCount, d.info.BufferSize)
	return d, nil
}

func (d *CharDev) Read32(addr uint32) (uint32, error) {
	arg := csrAccessArg{Addr: addr}
	if err := doIoctl(d.fd, ioctlCSRRead, unsafe.Pointer(&arg)); err != nil {
		return 0, errcode.Wrap(errcode.IO, err)
	}
	return arg.Value, nil
}

func (d *CharDev) Write32(addr uint32, val uint32) error {
	arg := csrAccessArg{Addr: addr, Value: val}
	if err := doIoctl(d.fd, ioctlCSRWrite, unsafe.Pointer(&arg)); err != nil {
		return errcode.Wrap(errcode.IO, err)
	}
	return nil
}

func (d *CharDev) DMAInfo() (DMAInfo, error) {
	return d.info, nil
}

func (d *CharDev) setEnable(req uintptr, enable bool) error {
	arg := dmaEnableArg{}
	if enable {
		arg.Enable = 1
	}
	if err := doIoctl(d.fd, req, unsafe.Pointer(&arg)); err != nil {
		return errcode.Wrap(errcode.IO, err)
	}
	return nil
}

func (d *CharDev) SetReaderEnable(enable bool) error {
	return d.setEnable(ioctlDMAReaderEnable, enable)
}

func (d *CharDev) SetWriterEnable(enable bool) error {
	return d.setEnable(ioctlDMAWriterEnable, enable)
}

func (d *CharDev) SetLoopback(enable bool) error {
	return d.setEnable(ioctlDMALoopback, enable)
}

func (d *CharDev) DMAStatus() (DMAStatus, error) {
	var arg dmaStatusArg
	if err := doIoctl(d.fd, ioctlDMAStatus, unsafe.Pointer(&arg)); err != nil {
		return DMAStatus{}, errcode.Wrap(errcode.IO, err)
	}
	return DMAStatus{
		ReaderHWCount: arg.ReaderHWCount,
		WriterHWCount: arg.WriterHWCount,
	}, nil
}

func (d *CharDev) updateSWCount(req uintptr, sw int64) error {
	arg := dmaUpdateArg{SWCount: sw}
	if err := doIoctl(d.fd, req, unsafe.Pointer(&arg)); err != nil {
		return errcode.Wrap(errcode.IO, err)
	}
	return nil
}

func (d *CharDev) UpdateReaderSWCount(sw int64) error {
	return d.updateSWCount(ioctlDMAReaderUpdate, sw)
}

func (d *CharDev) UpdateWriterSWCount(sw int64) error {
	return d.updateSWCount(ioctlDMAWriterUpdate, sw)
}

func (d *CharDev) ReaderBuf(i int) ([]byte, error) {
	if i < 0 || i >= d.info.BufferCount {
		return nil, errcode.Wrap(errcode.Invalid, ErrBufIndex{Index: i, Count: d.info.BufferCount})
	}
	return d.mem.Slice(i*d.info.BufferSize, d.info.BufferSize), nil
}

func (d *CharDev) WriterBuf(i int) ([]byte, error) {
	if i < 0 || i >= d.info.BufferCount {
		return nil, errcode.Wrap(errcode.Invalid, ErrBufIndex{Index: i, Count: d.info.BufferCount})
	}
	base := d.info.BufferCount * d.info.BufferSize
	return d.mem.Slice(base+i*d.info.BufferSize, d.info.BufferSize), nil
}

func (d *CharDev) Close() error {
	if d.mem != nil {
		d.mem.Close()
		d.mem = nil
	}
	if d.fd >= 0 {
		err := unix.Close(d.fd)
		d.fd = -1
		return err
	}
	return nil
}
