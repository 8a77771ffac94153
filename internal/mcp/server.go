package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"board_discover": {
		def:     discoverToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDiscover },
	},
	"columns_map": {
		def:     mapToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMap },
	},
	"value_coerce": {
		def:     coerceToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCoerce },
	},
	"leads_list": {
		def:     leadsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLeads },
	},
	"lead_runs": {
		def:     runsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRuns },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// EnabledToolNames returns the sorted tool names not listed in disabled.
func EnabledToolNames(disabled []string) []string {
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[name] = true
	}
	names := make([]string, 0, len(toolRegistry))
	for _, name := range AllToolNames() {
		if !off[name] {
			names = append(names, name)
		}
	}
	return names
}

// NewServer creates a new MCP server with leadsync tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, b board.Board, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := server.NewMCPServer(
		"leadsync",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, b, cfg, logger)
	for _, name := range EnabledToolNames(cfg.DisabledTools) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, b board.Board, cfg *config.Config, logger *zap.Logger, version string) error {
	return server.ServeStdio(NewServer(db, b, cfg, logger, version))
}
