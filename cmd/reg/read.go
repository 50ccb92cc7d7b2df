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

package reg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litex-hub/go-m2sdr/pkg/command"
	"github.com/litex-hub/go-m2sdr/pkg/config"
)

func NewReadCommand() *cobra.Command {
	var addr string
	var cached bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read value from register",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if cached {
				regs, err := apiClient.RegCached()
				if err != nil {
					return err
				}
				for _, reg := range regs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", reg.Addr, reg.Value)
				}
				return nil
			}
			if addr == "" {
				return fmt.Errorf("either --%s or --%s is required", AddrOptionName, CachedOptionName)
			}
			value, err := apiClient.RegRead(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", addr, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", "Register address (hexadecimal)")
	cmd.Flags().BoolVar(&cached, CachedOptionName, false, "List the shadow of past writes instead of reading the board")

	return cmd
}
