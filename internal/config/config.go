// Package config loads the bridge's recognized options through viper,
// layered under cobra flags for the serve command.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the fully resolved set of recognized options.
type Config struct {
	Port               int    `mapstructure:"port"`
	PortRangeEnd       int    `mapstructure:"port_range_end"`
	ConnectionTimeout  int    `mapstructure:"connection_timeout"` // seconds
	WatchdogTimeout    int    `mapstructure:"watchdog_timeout"`   // seconds
	MaxDepth           int    `mapstructure:"max_depth"`
	DefaultMaxChildren int    `mapstructure:"default_max_children"`
	DataDir            string `mapstructure:"data_dir"`
	ProjectRoot        string `mapstructure:"project_root"`
	Debug              bool   `mapstructure:"debug"`
}

// Load resolves configuration from, in increasing priority: built-in
// defaults, an optional .xdebug-mcp.yaml (searched in $HOME and cwd),
// XDEBUG_MCP_-prefixed environment variables, and already-bound cobra
// flags (the caller binds these onto v before calling Load).
func Load(v *viper.Viper) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	v.SetDefault("port", 9003)
	v.SetDefault("port_range_end", 9010)
	v.SetDefault("connection_timeout", 30)
	v.SetDefault("watchdog_timeout", 300)
	v.SetDefault("max_depth", 3)
	v.SetDefault("default_max_children", 20)
	v.SetDefault("data_dir", filepath.Join(cwd, ".xdebug-mcp"))
	v.SetDefault("project_root", cwd)
	v.SetDefault("debug", false)

	v.SetConfigName(".xdebug-mcp")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(cwd)
	v.SetEnvPrefix("XDEBUG_MCP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.MaxDepth > 10 {
		cfg.MaxDepth = 10
	}
	return cfg, nil
}
