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

package command

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/log"
	"github.com/litex-hub/go-m2sdr/pkg/sim"
	"github.com/litex-hub/go-m2sdr/pkg/srv"
	"github.com/litex-hub/go-m2sdr/pkg/state"
)

// StartServer opens the configured device and serves the API until
// SIGINT or SIGTERM. In sim mode no hardware is touched: an in-memory
// board is attached instead, and an Etherbone endpoint for it is
// served on the configured address so external tools can talk to the
// simulated board too.
func StartServer(cfg *config.Config, simMode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var dev *device.Device
	if simMode {
		board := sim.NewBoard()
		dev = device.Attach(board)
		ebSrv, err := sim.NewServer(board, cfg.EtherboneConfig.Address, cfg.EtherboneConfig.Port)
		if err != nil {
			return err
		}
		log.Info("Simulated board: Etherbone on %s and %s", ebSrv.UDPAddr(), ebSrv.TCPAddr())
		g.Go(func() error {
			return ebSrv.Run(ctx)
		})
	} else {
		var err error
		dev, err = device.Open(cfg.Device, device.WithI2CBackend(cfg.I2CBackend))
		if err != nil {
			return err
		}
	}
	defer dev.Close()

	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	g.Go(func() error {
		return srv.NewApiServer(cfg, dev, store).Run(ctx)
	})
	return g.Wait()
}
