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

// Package transport presents the board's 32-bit CSR space over either
// the kernel DMA character device (PCIe) or the Etherbone bridge
// (Ethernet). Everything above this package goes through Transport,
// never through raw file descriptors or sockets.
package transport

import (
	"time"
)

// Transport is the register-access HAL. Addresses are word-aligned
// 32-bit CSR addresses; accesses may be side-effecting (FIFO ports,
// latched strobes), so no caching is done here.
type Transport interface {
	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, val uint32) error
	Close() error
}

// DMAStatus mirrors the driver's DMA status: monotonic 64-bit hardware
// counters for the reader (host-to-device, TX) and writer
// (device-to-host, RX) engines.
type DMAStatus struct {
	ReaderHWCount int64
	WriterHWCount int64
}

// DMAInfo is the driver-negotiated ring geometry, identical for both
// directions.
type DMAInfo struct {
	BufferSize  int
	BufferCount int
}

// DMA is implemented by transports that expose the DMA ring: the
// character device, and the simulator used in tests. Reader buffers
// come first in the mmap layout, writer buffers second.
type DMA interface {
	Transport

	DMAInfo() (DMAInfo, error)
	SetReaderEnable(enable bool) error
	SetWriterEnable(enable bool) error
	SetLoopback(enable bool) error
	DMAStatus() (DMAStatus, error)

	// The software counters are reported back to the driver so the
	// engines know how far the host has progressed through the rings.
	UpdateReaderSWCount(sw int64) error
	UpdateWriterSWCount(sw int64) error

	// ReaderBuf returns the i-th TX buffer, WriterBuf the i-th RX
	// buffer. The returned slices alias the shared DMA region.
	ReaderBuf(i int) ([]byte, error)
	WriterBuf(i int) ([]byte, error)
}

const (
	// DefaultReadTimeout bounds a single Etherbone read round-trip.
	DefaultReadTimeout = 1 * time.Second
)
