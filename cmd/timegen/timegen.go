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

package timegen

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/litex-hub/go-m2sdr/pkg/command"
	"github.com/litex-hub/go-m2sdr/pkg/config"
)

func NewCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:       "time get|set [ns]",
		Short:     "Read or load the hardware time generator",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"get", "set"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			switch args[0] {
			case "get":
				ns, err := apiClient.TimeGet()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ns)
				return nil
			case "set":
				if len(args) != 2 {
					return fmt.Errorf("time set requires a value in nanoseconds")
				}
				ns, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return err
				}
				return apiClient.TimeSet(ns)
			default:
				return fmt.Errorf("wrong argument: %s", args[0])
			}
		},
	}
	return cmd
}
