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

package server

import (
	"github.com/spf13/cobra"

	"github.com/litex-hub/go-m2sdr/pkg/command"
	"github.com/litex-hub/go-m2sdr/pkg/config"
)

const (
	DeviceOptionName = "device"
	SimOptionName    = "sim"
)

func NewCommand() *cobra.Command {
	var device string
	var sim bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if device != "" {
				cfg.Device = device
			}
			return command.StartServer(cfg, sim)
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device identifier, e.g. pcie:/dev/m2sdr0 or eth:192.168.1.50:1234")
	cmd.Flags().BoolVar(&sim, SimOptionName, false, "Serve a simulated board instead of real hardware")

	return cmd
}
