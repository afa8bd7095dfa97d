package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/remote"
	"github.com/hpungsan/shard/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"project_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"project_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"project_show": {
		def:     showToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleShow },
	},
	"project_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"project_rename": {
		def:     renameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRename },
	},
	"project_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"project_split": {
		def:     splitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSplit },
	},
	"text_split": {
		def:     textSplitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTextSplit },
	},
	"sync_merge": {
		def:     syncMergeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSyncMerge },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
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

// NewServer creates an MCP server with the project tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
// client may be nil when no remote is configured; sync_merge then reports
// an error at call time rather than being hidden.
func NewServer(st *store.Store, cfg *config.Config, client remote.Client, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"shard",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, cfg, client)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, cfg *config.Config, client remote.Client, version string) error {
	s := NewServer(st, cfg, client, version)
	return server.ServeStdio(s)
}
