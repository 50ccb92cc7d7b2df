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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/litex-hub/go-m2sdr/cmd/completion"
	"github.com/litex-hub/go-m2sdr/cmd/config"
	"github.com/litex-hub/go-m2sdr/cmd/header"
	"github.com/litex-hub/go-m2sdr/cmd/info"
	"github.com/litex-hub/go-m2sdr/cmd/reg"
	"github.com/litex-hub/go-m2sdr/cmd/rf"
	"github.com/litex-hub/go-m2sdr/cmd/server"
	"github.com/litex-hub/go-m2sdr/cmd/timegen"
	pkgconfig "github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-m2sdr",
		Short: "Tool to work with LiteX-M2SDR boards",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(reg.NewCommand())
	cmd.AddCommand(info.NewCommand())
	cmd.AddCommand(timegen.NewCommand())
	cmd.AddCommand(header.NewCommand())
	cmd.AddCommand(rf.NewCommand())
	cmd.AddCommand(server.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
