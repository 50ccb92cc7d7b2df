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

package srv_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/sim"
	"github.com/litex-hub/go-m2sdr/pkg/srv"
	"github.com/litex-hub/go-m2sdr/pkg/state"
)

func startAPI(t *testing.T) (*sim.Board, *state.Store, *httptest.Server) {
	t.Helper()
	board := sim.NewBoard()
	dev := device.Attach(board)
	t.Cleanup(func() { dev.Close() })

	store, err := state.NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)

	s := srv.NewApiServer(config.NewDefaultConfig(), dev, store)
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return board, store, ts
}

func postJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Post %s: %v", url, err)
	}
	return resp
}

func TestApiRegReadWrite(t *testing.T) {
	board, store, ts := startAPI(t)

	resp := postJSON(t, ts.URL+"/api/reg/w", &srv.RegHex{Addr: "0x00000004", Value: "0xdeadbeef"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reg write status %d", resp.StatusCode)
	}
	if got := board.Peek(0x0004); got != 0xdeadbeef {
		t.Fatalf("scratch = %#x, want 0xdeadbeef", got)
	}

	resp, err := http.Get(ts.URL + "/api/reg/r/0x00000004")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	var reg srv.RegHex
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if reg.Value != "0xdeadbeef" {
		t.Fatalf("reg value = %s, want 0xdeadbeef", reg.Value)
	}

	// The write is shadowed in the state store.
	shadow, err := store.GetReg(config.DefaultDevice, 0x0004)
	if err != nil {
		t.Fatalf("GetReg: %v", err)
	}
	if shadow != 0xdeadbeef {
		t.Fatalf("shadow = %#x, want 0xdeadbeef", shadow)
	}

	resp, err = http.Get(ts.URL + "/api/reg/cached")
	if err != nil {
		t.Fatalf("Get cached: %v", err)
	}
	defer resp.Body.Close()
	var cached []srv.RegHex
	if err := json.NewDecoder(resp.Body).Decode(&cached); err != nil {
		t.Fatalf("Decode cached: %v", err)
	}
	if len(cached) != 1 || cached[0].Addr != "0x00000004" || cached[0].Value != "0xdeadbeef" {
		t.Fatalf("cached = %+v", cached)
	}
}

func TestApiInfo(t *testing.T) {
	_, _, ts := startAPI(t)

	resp, err := http.Get(ts.URL + "/api/info")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	var info srv.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(info.Identifier, "LiteX-M2SDR") {
		t.Errorf("identifier = %q", info.Identifier)
	}
	if info.Serial == "" {
		t.Error("empty serial")
	}
}

func TestApiTime(t *testing.T) {
	_, _, ts := startAPI(t)

	resp := postJSON(t, ts.URL+"/api/time", &srv.TimeNS{NS: 5000000000})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("time set status %d", resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/time")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	var tm srv.TimeNS
	if err := json.NewDecoder(resp.Body).Decode(&tm); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tm.NS < 5000000000 {
		t.Fatalf("time = %d, want at least the loaded 5000000000", tm.NS)
	}
}

func TestApiRF(t *testing.T) {
	board, _, ts := startAPI(t)

	cfg := device.DefaultRFConfig()
	cfg.TXGain = -5
	resp := postJSON(t, ts.URL+"/api/rf", &cfg)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rf apply status %d", resp.StatusCode)
	}
	if got := board.AD9361Reg(0x073); got != 20 {
		t.Fatalf("tx atten = %d, want 20", got)
	}

	resp, err := http.Get(ts.URL + "/api/rf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	var back device.RFConfig
	if err := json.NewDecoder(resp.Body).Decode(&back); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.TXGain != -5 {
		t.Fatalf("rf readback tx gain = %d, want -5", back.TXGain)
	}

	// Bad configurations are rejected before touching the hardware.
	bad := device.DefaultRFConfig()
	bad.ChanMode = "3t3r"
	resp = postJSON(t, ts.URL+"/api/rf", &bad)
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Fatal("bad rf config accepted")
	}
}

func TestApiHeader(t *testing.T) {
	board, _, ts := startAPI(t)

	resp := postJSON(t, ts.URL+"/api/header/rx", &srv.HeaderSetup{Enable: true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("header rx status %d", resp.StatusCode)
	}
	if got := board.Peek(0x5004); got != 0x3 {
		t.Fatalf("rx header control = %#x, want 0x3", got)
	}
}
