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
)

// ioctl encoding, see asm-generic/ioctl.h.
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// Character-device ioctl payloads. Field layout follows the driver's
// UAPI header; all structs are passed by pointer.

type csrAccessArg struct {
	Addr  uint32
	Value uint32
}

type dmaEnableArg struct {
	Enable uint32
	_      uint32
}

type dmaStatusArg struct {
	ReaderHWCount int64
	WriterHWCount int64
}

type mmapInfoArg struct {
	BufferSize  uint64
	BufferCount uint64
}

type dmaUpdateArg struct {
	SWCount int64
}

const ioctlType = 'S'

var (
	ioctlCSRRead         = iowr(ioctlType, 0, unsafe.Sizeof(csrAccessArg{}))
	ioctlCSRWrite        = iowr(ioctlType, 1, unsafe.Sizeof(csrAccessArg{}))
	ioctlDMAWriterEnable = iowr(ioctlType, 2, unsafe.Sizeof(dmaEnableArg{}))
	ioctlDMAReaderEnable = iowr(ioctlType, 3, unsafe.Sizeof(dmaEnableArg{}))
	ioctlDMALoopback     = iowr(ioctlType, 4, unsafe.Sizeof(dmaEnableArg{}))
	ioctlDMAStatus       = iowr(ioctlType, 5, unsafe.Sizeof(dmaStatusArg{}))
	ioctlMmapInfo        = iowr(ioctlType, 6, unsafe.Sizeof(mmapInfoArg{}))
	ioctlDMAReaderUpdate = iowr(ioctlType, 7, unsafe.Sizeof(dmaUpdateArg{}))
	ioctlDMAWriterUpdate = iowr(ioctlType, 8, unsafe.Sizeof(dmaUpdateArg{}))
)

func doIoctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
