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

// Package srv exposes an open device session over a small HTTP API,
// so shell scripts and remote tools can poke registers and apply RF
// configurations without linking the library.
package srv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/log"
	"github.com/litex-hub/go-m2sdr/pkg/state"
)

// RegHex carries a register access with hexadecimal strings, the
// format the CLI prints and parses.
type RegHex struct {
	Addr  string `json:"addr"`
	Value string `json:"value"`
}

// Info is the identification snapshot served under /api/info.
type Info struct {
	Identifier string `json:"identifier"`
	Serial     string `json:"serial"`
	Caps       string `json:"caps"`
}

// TimeNS carries the time-generator value in nanoseconds.
type TimeNS struct {
	NS uint64 `json:"ns"`
}

// HeaderSetup toggles DMA-header handling for one direction.
type HeaderSetup struct {
	Enable bool `json:"enable"`
	Strip  bool `json:"strip,omitempty"`
}

type ApiServer struct {
	*config.Config
	Router *mux.Router

	dev   *device.Device
	store *state.Store
}

func NewApiServer(cfg *config.Config, dev *device.Device, store *state.Store) *ApiServer {
	s := &ApiServer{
		Config: cfg,
		dev:    dev,
		store:  store,
	}
	s.configureRouter()
	return s
}

// Run serves until the context is cancelled.
func (s *ApiServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.APIConfig.Address, s.Config.APIConfig.Port)
	log.Info("Starting API server on %s", addr)
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stdout, s.Router),
		Addr:    addr,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// addr and value are hexadecimal integers
	subRouter.HandleFunc("/reg/r/{addr:0x[0-9a-f]+}", s.handleRegRead()).Methods("GET")
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	subRouter.HandleFunc("/reg/cached", s.handleRegCached()).Methods("GET")
	subRouter.HandleFunc("/info", s.handleInfo()).Methods("GET")
	subRouter.HandleFunc("/time", s.handleTimeGet()).Methods("GET")
	subRouter.HandleFunc("/time", s.handleTimeSet()).Methods("POST")
	subRouter.HandleFunc("/rf", s.handleRFGet()).Methods("GET")
	subRouter.HandleFunc("/rf", s.handleRFApply()).Methods("POST")
	subRouter.HandleFunc("/header/{dir:rx|tx}", s.handleHeader()).Methods("POST")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("api: encoding response: %v", err)
	}
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: addr: %s", vars["addr"])

		addr, err := strconv.ParseUint(vars["addr"], 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := s.dev.Transport().Read32(uint32(addr))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, &RegHex{
			Addr:  fmt.Sprintf("0x%08x", addr),
			Value: fmt.Sprintf("0x%08x", value),
		})
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		if err := json.NewDecoder(r.Body).Decode(regHex); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		addr, err := strconv.ParseUint(regHex.Addr, 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := strconv.ParseUint(regHex.Value, 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling reg write request: addr: %#x value: %#x", addr, value)
		if err := s.dev.Transport().Write32(uint32(addr), uint32(value)); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if s.store != nil {
			if err := s.store.SetReg(s.Config.Device, uint32(addr), uint32(value)); err != nil {
				log.Warning("api: shadowing reg write: %v", err)
			}
		}
	}
}

// handleRegCached serves the bbolt shadow of past writes, without
// touching the board.
func (s *ApiServer) handleRegCached() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, "no state store", http.StatusNotFound)
			return
		}
		regs, err := s.store.GetRegAll(s.Config.Device)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]RegHex, 0, len(regs))
		for _, reg := range regs {
			out = append(out, RegHex{
				Addr:  fmt.Sprintf("0x%08x", reg.Addr),
				Value: fmt.Sprintf("0x%08x", reg.Value),
			})
		}
		writeJSON(w, out)
	}
}

func (s *ApiServer) handleInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.dev.Identifier()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		serial, err := s.dev.Serial()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		caps, err := s.dev.Capabilities()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, &Info{
			Identifier: ident,
			Serial:     serial,
			Caps:       caps.String(),
		})
	}
}

func (s *ApiServer) handleTimeGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ns, err := s.dev.Time()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, &TimeNS{NS: ns})
	}
}

func (s *ApiServer) handleTimeSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := &TimeNS{}
		if err := json.NewDecoder(r.Body).Decode(t); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.dev.SetTime(t.NS); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *ApiServer) handleRFGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.dev.RF()
		if cfg == nil && s.store != nil {
			stored, err := s.store.GetRF(s.Config.Device)
			if err == nil {
				cfg = stored
			}
		}
		if cfg == nil {
			http.Error(w, "no rf configuration applied", http.StatusNotFound)
			return
		}
		writeJSON(w, cfg)
	}
}

func (s *ApiServer) handleRFApply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := device.DefaultRFConfig()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.dev.ApplyRF(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if s.store != nil {
			if err := s.store.SetRF(s.Config.Device, &cfg); err != nil {
				log.Warning("api: shadowing rf config: %v", err)
			}
		}
	}
}

func (s *ApiServer) handleHeader() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &HeaderSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var err error
		if mux.Vars(r)["dir"] == "rx" {
			err = s.dev.SetRXHeader(setup.Enable, setup.Strip)
		} else {
			err = s.dev.SetTXHeader(setup.Enable)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
	}
}
