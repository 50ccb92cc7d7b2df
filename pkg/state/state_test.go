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

package state_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/state"
)

func openStore(t *testing.T) *state.Store {
	t.Helper()
	s, err := state.NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestRegShadow(t *testing.T) {
	s := openStore(t)

	if err := s.SetReg("/dev/m2sdr0", 0x0004, 0xdeadbeef); err != nil {
		t.Fatalf("SetReg: %v", err)
	}
	if err := s.SetReg("/dev/m2sdr0", 0x3000, 0x00000001); err != nil {
		t.Fatalf("SetReg: %v", err)
	}

	got, err := s.GetReg("/dev/m2sdr0", 0x0004)
	if err != nil {
		t.Fatalf("GetReg: %v", err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("GetReg = %#x, want 0xdeadbeef", got)
	}

	all, err := s.GetRegAll("/dev/m2sdr0")
	if err != nil {
		t.Fatalf("GetRegAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetRegAll returned %d entries, want 2", len(all))
	}
	// bbolt iterates keys in byte order, which is address order here.
	if all[0].Addr != 0x0004 || all[1].Addr != 0x3000 {
		t.Fatalf("entries out of address order: %+v", all)
	}
}

func TestRegNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.GetReg("/dev/m2sdr0", 0x0004)
	var notFound state.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("GetReg on empty store: %v, want ErrNotFound", err)
	}

	if err := s.SetReg("/dev/m2sdr0", 0x0000, 1); err != nil {
		t.Fatalf("SetReg: %v", err)
	}
	_, err = s.GetReg("/dev/m2sdr0", 0x0004)
	if !errors.As(err, &notFound) {
		t.Fatalf("GetReg of unknown addr: %v, want ErrNotFound", err)
	}
}

func TestRFShadow(t *testing.T) {
	s := openStore(t)

	cfg := device.DefaultRFConfig()
	cfg.TXFreq = 100000000
	cfg.TXGain = -5
	if err := s.SetRF("/dev/m2sdr0", &cfg); err != nil {
		t.Fatalf("SetRF: %v", err)
	}

	back, err := s.GetRF("/dev/m2sdr0")
	if err != nil {
		t.Fatalf("GetRF: %v", err)
	}
	if *back != cfg {
		t.Fatalf("GetRF = %+v, want %+v", *back, cfg)
	}

	if _, err := s.GetRF("/dev/other"); err == nil {
		t.Fatal("GetRF for an unknown device succeeded")
	}
}
