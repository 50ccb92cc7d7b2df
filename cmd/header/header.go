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

package header

import (
	"github.com/spf13/cobra"

	"github.com/litex-hub/go-m2sdr/pkg/command"
	"github.com/litex-hub/go-m2sdr/pkg/config"
)

const (
	EnableOptionName = "enable"
	StripOptionName  = "strip"
)

// NewCommand creates a cobra command object for toggling DMA-header
// handling per direction
func NewCommand() *cobra.Command {
	var enable, strip bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:       "header rx|tx",
		Short:     "Toggle DMA header handling for a direction",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"rx", "tx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.HeaderSet(args[0], enable, strip)
		},
	}
	cmd.Flags().BoolVar(&enable, EnableOptionName, true, "Enable header handling")
	cmd.Flags().BoolVar(&strip, StripOptionName, false, "Strip/insert headers in the data path")

	return cmd
}
