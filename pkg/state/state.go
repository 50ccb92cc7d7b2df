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

// Package state keeps a shadow of what was last written to each
// board: CSR values and the last applied RF configuration. The CLI and
// the control API read it back without touching the hardware.
package state

import (
	"encoding/binary"

	"go.etcd.io/bbolt"
	yaml "gopkg.in/yaml.v2"

	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/log"
)

const (
	regBucketPrefix = "reg_"
	rfBucketPrefix  = "rf_"

	rfConfigKey = "config"
)

// Reg is one shadowed CSR entry.
type Reg struct {
	Addr  uint32
	Value uint32
}

type Store struct {
	DB *bbolt.DB
}

func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() {
	s.DB.Close()
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func regBucket(device string) []byte {
	return []byte(regBucketPrefix + device)
}

func rfBucket(device string) []byte {
	return []byte(rfBucketPrefix + device)
}

// SetReg records the value last written to a CSR of the device.
func (s *Store) SetReg(device string, addr, value uint32) error {
	log.Debug("state: %s reg %08x = %08x", device, addr, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(regBucket(device))
		if err != nil {
			return err
		}
		return b.Put(uint32ToByte(addr), uint32ToByte(value))
	})
}

// GetReg returns the shadowed value of a CSR.
func (s *Store) GetReg(device string, addr uint32) (uint32, error) {
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(regBucket(device))
		if b == nil {
			return ErrNotFound{Device: device}
		}
		valueBytes := b.Get(uint32ToByte(addr))
		if valueBytes == nil {
			return ErrNotFound{Device: device, Addr: addr}
		}
		value = binary.BigEndian.Uint32(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// GetRegAll returns every shadowed CSR of the device in address order.
func (s *Store) GetRegAll(device string) ([]Reg, error) {
	var regs []Reg
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(regBucket(device))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			regs = append(regs, Reg{
				Addr:  binary.BigEndian.Uint32(k),
				Value: binary.BigEndian.Uint32(v),
			})
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return regs, nil
}

// SetRF records the RF configuration last applied to the device.
func (s *Store) SetRF(dev string, cfg *device.RFConfig) error {
	blob, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(rfBucket(dev))
		if err != nil {
			return err
		}
		return b.Put([]byte(rfConfigKey), blob)
	})
}

// GetRF returns the RF configuration last applied to the device.
func (s *Store) GetRF(dev string) (*device.RFConfig, error) {
	var blob []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(rfBucket(dev))
		if b == nil {
			return ErrNotFound{Device: dev}
		}
		v := b.Get([]byte(rfConfigKey))
		if v == nil {
			return ErrNotFound{Device: dev}
		}
		blob = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, err
	}
	cfg := &device.RFConfig{}
	if err := yaml.Unmarshal(blob, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
