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

package csr

// CSR map of the FPGA design. Word-aligned 32-bit addresses; the same
// flat map is visible through the character device and Etherbone.
const (
	CtrlBase    = 0x0000
	CtrlReset   = CtrlBase + 0x00
	CtrlScratch = CtrlBase + 0x04

	// Identifier block: one ASCII byte in the low byte of each word,
	// NUL-terminated, at most IdentMaxLen bytes.
	IdentBase   = 0x0100
	IdentMaxLen = 256

	// DNA: 57-bit device serial in two words.
	DNABase = 0x2000
	DNAHigh = DNABase + 0x00
	DNALow  = DNABase + 0x04

	// Time generator, nanosecond counter.
	TimeBase    = 0x3000
	TimeControl = TimeBase + 0x00
	TimeHigh    = TimeBase + 0x04
	TimeLow     = TimeBase + 0x08

	TimeControlLatch = 1 << 0
	TimeControlLoad  = 1 << 1

	// Capability block, read once at open.
	CapBase       = 0x4000
	CapAPIVersion = CapBase + 0x00
	CapFeatures   = CapBase + 0x04
	CapBoardInfo  = CapBase + 0x08
	CapPCIeInfo   = CapBase + 0x0c
	CapEthInfo    = CapBase + 0x10
	CapSATAInfo   = CapBase + 0x14

	FeaturePCIe     = 1 << 0
	FeatureEth      = 1 << 1
	FeatureSATA     = 1 << 2
	FeatureGPIO     = 1 << 3
	FeatureWR       = 1 << 4
	FeatureJTAGBone = 1 << 5

	// DMA header insertion control, one 2-bit register per direction:
	// bit 0 enables the block, bit 1 enables header insertion.
	HeaderBase      = 0x5000
	HeaderTXControl = HeaderBase + 0x00
	HeaderRXControl = HeaderBase + 0x04

	HeaderCtrlEnable = 1 << 0
	HeaderCtrlInsert = 1 << 1

	// DMA hardware counters, mmio view of the driver's DMA status.
	DMABase          = 0x5800
	DMAReaderCountHi = DMABase + 0x00
	DMAReaderCountLo = DMABase + 0x04
	DMAWriterCountHi = DMABase + 0x08
	DMAWriterCountLo = DMABase + 0x0c

	// GPIO block (4 bits).
	GPIOBase    = 0x6000
	GPIOControl = GPIOBase + 0x00
	GPIOOut     = GPIOBase + 0x04
	GPIOOE      = GPIOBase + 0x08
	GPIOIn      = GPIOBase + 0x0c // read-only

	GPIOCtrlEnable   = 1 << 0
	GPIOCtrlLoopback = 1 << 1
	GPIOCtrlSource   = 1 << 2 // 0: CSR, 1: DMA upper nibbles

	// SI5351 I2C. The FSM master and the bit-banged lines share the
	// block; only one backend is active at a time.
	I2CBase     = 0x7000
	I2CSettings = I2CBase + 0x00 // bits 7:0 tx len, 15:8 rx len
	I2CSlave    = I2CBase + 0x04
	I2CData     = I2CBase + 0x08
	I2CActive   = I2CBase + 0x0c
	I2CStatus   = I2CBase + 0x10

	I2CStatusTXReady = 1 << 0
	I2CStatusRXReady = 1 << 1
	I2CStatusNACK    = 1 << 8

	// Bit-banged lines: write register drives SCL/SDA, read register
	// senses SDA.
	I2CRawOut = I2CBase + 0x20
	I2CRawIn  = I2CBase + 0x24

	I2CRawSCL   = 1 << 0
	I2CRawSDAOE = 1 << 1
	I2CRawSDA   = 1 << 2
	I2CRawSDAIn = 1 << 0

	// AD9361 SPI bridge.
	SPIBase    = 0x8000
	SPIControl = SPIBase + 0x00
	SPIStatus  = SPIBase + 0x04
	SPIMOSI    = SPIBase + 0x08
	SPIMISO    = SPIBase + 0x0c
	SPICS      = SPIBase + 0x10

	SPIControlStart  = 1 << 0
	SPIControlLength = 24 << 8
	SPIStatusDone    = 1 << 0
)
