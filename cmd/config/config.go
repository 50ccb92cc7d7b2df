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

package config

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgconfig "github.com/litex-hub/go-m2sdr/pkg/config"
)

const (
	ForceOptionName = "force"
)

// NewCommand creates a cobra command object for persisting the default config
func NewCommand() *cobra.Command {
	var force bool
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Persist the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Persist(force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", pkgconfig.DefaultConfigPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, ForceOptionName, false, "Overwrite an existing config file")

	return cmd
}
