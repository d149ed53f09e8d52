package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HackingModeKey is the value that enables dispatching events by name.
const HackingModeKey = "IKNOWWHATIAMDOING"

// Log store backends.
const (
	LogStoreJSON   = "json"
	LogStoreSQLite = "sqlite"
)

const (
	timelineFileName = "timeline.json"
	jsonLogFileName  = "game-state.json"
	sqliteLogName    = "game-state.db"
	desktopDBName    = "desktop.db"
)

// Config is the resolved service configuration.
type Config struct {
	// Addr is the gRPC listen address, such as ":8090".
	Addr string

	// TimelineFile overrides every other timeline source when set.
	TimelineFile string
	// ConfigDir holds the timeline override, the event log and copied
	// attachments.
	ConfigDir string
	// FilesDir holds the internal files timelines refer to.
	FilesDir string
	// HomeDir expands ~ in attachment paths.
	HomeDir string

	// LogStore selects the event log backend: json or sqlite.
	LogStore string
	// DesktopDBPath is the settings and app grid database. Defaults to
	// desktop.db under ConfigDir.
	DesktopDBPath string

	// HackingMode enables DispatchEventByName when it equals HackingModeKey.
	HackingMode string

	// MCPTransport, when set, also serves the MCP tools on it.
	MCPTransport mcp.Transport
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ConfigDir) == "" {
		return fmt.Errorf("config dir is required")
	}
	switch c.logStore() {
	case LogStoreJSON, LogStoreSQLite:
	default:
		return fmt.Errorf("log store %q is not supported", c.LogStore)
	}
	return nil
}

func (c Config) logStore() string {
	if c.LogStore == "" {
		return LogStoreJSON
	}
	return strings.ToLower(strings.TrimSpace(c.LogStore))
}

func (c Config) desktopDBPath() string {
	if c.DesktopDBPath != "" {
		return c.DesktopDBPath
	}
	return filepath.Join(c.ConfigDir, desktopDBName)
}

func (c Config) debugEnabled() bool {
	return c.HackingMode == HackingModeKey
}
