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

// Package csr layers the register map and bit-field accessors on top of
// the transport HAL.
package csr

import (
	"github.com/litex-hub/go-m2sdr/pkg/transport"
)

// Field names a contiguous bit range inside a CSR.
type Field struct {
	Addr  uint32
	Shift uint32
	Width uint32
}

func (f Field) mask() uint32 {
	if f.Width >= 32 {
		return 0xffffffff
	}
	return (1<<f.Width - 1) << f.Shift
}

// Read returns the field value, shifted down to bit 0.
func (f Field) Read(t transport.Transport) (uint32, error) {
	word, err := t.Read32(f.Addr)
	if err != nil {
		return 0, err
	}
	return (word & f.mask()) >> f.Shift, nil
}

// Write read-modify-writes the field, leaving the other bits of the
// register untouched.
func (f Field) Write(t transport.Transport, val uint32) error {
	word, err := t.Read32(f.Addr)
	if err != nil {
		return err
	}
	word = (word &^ f.mask()) | ((val << f.Shift) & f.mask())
	return t.Write32(f.Addr, word)
}

// SetBits ORs bits into a register.
func SetBits(t transport.Transport, addr, bits uint32) error {
	word, err := t.Read32(addr)
	if err != nil {
		return err
	}
	return t.Write32(addr, word|bits)
}

// ClearBits clears bits in a register.
func ClearBits(t transport.Transport, addr, bits uint32) error {
	word, err := t.Read32(addr)
	if err != nil {
		return err
	}
	return t.Write32(addr, word&^bits)
}

// Read64 assembles a 64-bit value from a high/low register pair.
func Read64(t transport.Transport, hi, lo uint32) (uint64, error) {
	h, err := t.Read32(hi)
	if err != nil {
		return 0, err
	}
	l, err := t.Read32(lo)
	if err != nil {
		return 0, err
	}
	return uint64(h)<<32 | uint64(l), nil
}

// Write64 writes a 64-bit value to a high/low register pair.
func Write64(t transport.Transport, hi, lo uint32, val uint64) error {
	if err := t.Write32(hi, uint32(val>>32)); err != nil {
		return err
	}
	return t.Write32(lo, uint32(val))
}
