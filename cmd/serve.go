package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wallter/smart-xdebug-mcp/internal/config"
	"github.com/wallter/smart-xdebug-mcp/internal/mcptools"
	"github.com/wallter/smart-xdebug-mcp/internal/session"
	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge, speaking MCP tool calls over stdio to the agent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(gViper)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		xlog.SetDebug(cfg.Debug)

		runtime, err := session.NewRuntime(cfg)
		if err != nil {
			return fmt.Errorf("starting runtime: %w", err)
		}
		defer runtime.Close()

		srv := mcptools.New(runtime)
		if err := srv.ServeStdio(); err != nil {
			fmt.Fprintln(os.Stderr, "xdebug-mcp: server exited:", err)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
