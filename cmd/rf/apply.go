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

package rf

import (
	"io/ioutil"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/litex-hub/go-m2sdr/pkg/command"
	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/device"
)

// NewApplyCommand creates a cobra command object for applying an RF
// configuration. Values missing from the file keep their defaults.
func NewApplyCommand() *cobra.Command {
	var file string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply RF configuration from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rfCfg := device.DefaultRFConfig()
			if file != "" {
				data, err := ioutil.ReadFile(file)
				if err != nil {
					return err
				}
				if err = yaml.Unmarshal(data, &rfCfg); err != nil {
					return err
				}
			}
			apiClient := command.NewApiClient(cfg)
			return apiClient.RFApply(&rfCfg)
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "Path to RF configuration YAML")

	return cmd
}
