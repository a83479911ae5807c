// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	gViper  = viper.New()
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "xdebug-mcp",
	Short: "xdebug-mcp bridges an LLM coding agent to a live, XDebug-enabled interpreter over DBGp.",
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.xdebug-mcp.yaml)")
	RootCmd.PersistentFlags().Int("port", 9003, "base DBGp listener port")
	RootCmd.PersistentFlags().Int("port-range-end", 9010, "last port to try if the base port is taken")
	RootCmd.PersistentFlags().Int("connection-timeout", 30, "seconds to wait for the debuggee to connect")
	RootCmd.PersistentFlags().Int("watchdog-timeout", 300, "seconds of inactivity before a session is force-stopped")
	RootCmd.PersistentFlags().Int("max-depth", 3, "maximum recursion depth for variable inspection")
	RootCmd.PersistentFlags().Int("default-max-children", 20, "default child count returned per inspected variable")
	RootCmd.PersistentFlags().String("data-dir", "", "directory for the session ledger (default <cwd>/.xdebug-mcp)")
	RootCmd.PersistentFlags().String("project-root", "", "local project root, used to resolve default path mappings")
	RootCmd.PersistentFlags().Bool("debug", false, "enable verbose wire protocol tracing")

	gViper.BindPFlag("port", RootCmd.PersistentFlags().Lookup("port"))
	gViper.BindPFlag("port_range_end", RootCmd.PersistentFlags().Lookup("port-range-end"))
	gViper.BindPFlag("connection_timeout", RootCmd.PersistentFlags().Lookup("connection-timeout"))
	gViper.BindPFlag("watchdog_timeout", RootCmd.PersistentFlags().Lookup("watchdog-timeout"))
	gViper.BindPFlag("max_depth", RootCmd.PersistentFlags().Lookup("max-depth"))
	gViper.BindPFlag("default_max_children", RootCmd.PersistentFlags().Lookup("default-max-children"))
	gViper.BindPFlag("data_dir", RootCmd.PersistentFlags().Lookup("data-dir"))
	gViper.BindPFlag("project_root", RootCmd.PersistentFlags().Lookup("project-root"))
	gViper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			gViper.SetConfigFile(cfgFile)
		}
	})
}
