// Package codinggame parses the service flags and starts the game server.
package codinggame

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	entrypoint "github.com/louisbranch/codinggame/internal/platform/cmd"
	server "github.com/louisbranch/codinggame/internal/services/codinggame/app"
)

// appID names the per-user config directory.
const appID = "com.endlessm.CodingGameService"

// Config holds command configuration.
type Config struct {
	Port          int    `env:"CODING_GAME_PORT" envDefault:"8090"`
	Addr          string `env:"CODING_GAME_ADDR"`
	TimelineFile  string `env:"CODING_GAME_TIMELINE_FILE"`
	ConfigDir     string `env:"CODING_GAME_CONFIG_DIR"`
	FilesDir      string `env:"CODING_GAME_FILES_DIR" envDefault:"/usr/share/coding-game-service/files"`
	LogStore      string `env:"CODING_GAME_LOG_STORE" envDefault:"json"`
	DesktopDBPath string `env:"CODING_GAME_DESKTOP_DB_PATH"`
	MCP           bool   `env:"CODING_GAME_MCP"`
	HackingMode   string `env:"CODING_ENABLE_HACKING_MODE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gRPC listen address (overrides -port)")
	fs.StringVar(&cfg.TimelineFile, "timeline-file", cfg.TimelineFile, "Timeline file to load instead of the installed one")
	fs.StringVar(&cfg.TimelineFile, "l", cfg.TimelineFile, "Shorthand for -timeline-file")
	fs.StringVar(&cfg.ConfigDir, "config-dir", cfg.ConfigDir, "Directory for the event log, timeline override and copied files")
	fs.StringVar(&cfg.FilesDir, "files-dir", cfg.FilesDir, "Directory of the internal files timelines refer to")
	fs.StringVar(&cfg.LogStore, "log-store", cfg.LogStore, "Event log backend: json or sqlite")
	fs.BoolVar(&cfg.MCP, "mcp", cfg.MCP, "Also serve MCP tools on stdio")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if cfg.ConfigDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.ConfigDir = filepath.Join(base, appID)
	}
	return cfg, nil
}

// AppConfig resolves the server configuration.
func (c Config) AppConfig() server.Config {
	addr := c.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", c.Port)
	}
	home, _ := os.UserHomeDir()
	out := server.Config{
		Addr:          addr,
		TimelineFile:  c.TimelineFile,
		ConfigDir:     c.ConfigDir,
		FilesDir:      c.FilesDir,
		HomeDir:       home,
		LogStore:      c.LogStore,
		DesktopDBPath: c.DesktopDBPath,
		HackingMode:   c.HackingMode,
	}
	if c.MCP {
		out.MCPTransport = &mcp.StdioTransport{}
	}
	return out
}

// Run starts the coding game service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCodingGame, func(ctx context.Context) error {
		return server.Run(ctx, cfg.AppConfig())
	})
}
