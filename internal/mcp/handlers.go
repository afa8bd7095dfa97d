package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/shard/internal/chunk"
	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/errors"
	"github.com/hpungsan/shard/internal/project"
	"github.com/hpungsan/shard/internal/remote"
	"github.com/hpungsan/shard/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store  *store.Store
	cfg    *config.Config
	client remote.Client // nil when no remote is configured
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, cfg *config.Config, client remote.Client) *Handlers {
	return &Handlers{store: st, cfg: cfg, client: client}
}

// Request types for each tool

// ShowRequest represents the arguments for project_show.
type ShowRequest struct {
	ID string `json:"id,omitempty"`
}

// UpdateRequest represents the arguments for project_update.
type UpdateRequest struct {
	Text        *string `json:"text,omitempty"`
	Title       *string `json:"title,omitempty"`
	SplitLength *int    `json:"split_length,omitempty"`
	Prefix      *string `json:"prefix,omitempty"`
	Suffix      *string `json:"suffix,omitempty"`
}

// RenameRequest represents the arguments for project_rename.
type RenameRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DeleteRequest represents the arguments for project_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// SplitRequest represents the arguments for project_split.
type SplitRequest struct {
	ID string `json:"id,omitempty"`
}

// TextSplitRequest represents the arguments for text_split.
type TextSplitRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
}

// Response types

// SummaryItem is one project in a project_list result.
type SummaryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
	Chars     int    `json:"chars"`
	Words     int    `json:"words"`
	Current   bool   `json:"current,omitempty"`
}

// ShowResult is the project_show payload.
type ShowResult struct {
	Project project.Project `json:"project"`
	Chars   int             `json:"chars"`
	Words   int             `json:"words"`
	Chunks  int             `json:"chunks"`
}

// SplitResult is the project_split and text_split payload.
type SplitResult struct {
	Pieces []chunk.Piece `json:"pieces"`
	Total  int           `json:"total"`
}

// MergeResult is the sync_merge payload.
type MergeResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// Handler implementations

// HandleCreate handles the project_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := h.store.CreateProject()
	return successResult(ShowResult{Project: p})
}

// HandleList handles the project_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, _ := h.store.Current()

	history := h.store.History()
	items := make([]SummaryItem, 0, len(history))
	for _, p := range history {
		items = append(items, SummaryItem{
			ID:        p.ID,
			Title:     p.Title,
			Timestamp: p.Timestamp,
			Chars:     project.CountChars(p.Text),
			Words:     project.CountWords(p.Text),
			Current:   p.ID == current.ID,
		})
	}
	return successResult(map[string]any{"projects": items, "total": len(items)})
}

// HandleShow handles the project_show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p, ok := h.resolve(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	return successResult(ShowResult{
		Project: p,
		Chars:   project.CountChars(p.Text),
		Words:   project.CountWords(p.Text),
		Chunks:  len(renderProject(p)),
	})
}

// HandleUpdate handles the project_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.store.UpdateCurrent(store.Patch{
		Text:        input.Text,
		Title:       input.Title,
		SplitLength: input.SplitLength,
		Prefix:      input.Prefix,
		Suffix:      input.Suffix,
	})

	p, ok := h.store.Current()
	if !ok {
		return errorResult(errors.NewInternal(fmt.Errorf("no current project"))), nil
	}
	return successResult(ShowResult{
		Project: p,
		Chars:   project.CountChars(p.Text),
		Words:   project.CountWords(p.Text),
		Chunks:  len(renderProject(p)),
	})
}

// HandleRename handles the project_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, ok := h.resolve(id); !ok {
		return errorResult(errors.NewNotFound(id)), nil
	}
	h.store.RenameProject(id, title)

	p, _ := h.resolve(id)
	return successResult(map[string]any{"id": p.ID, "title": p.Title})
}

// HandleDelete handles the project_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if _, ok := h.resolve(id); !ok {
		return errorResult(errors.NewNotFound(id)), nil
	}
	h.store.DeleteProject(id)

	current, _ := h.store.Current()
	return successResult(map[string]any{
		"deleted":    id,
		"current_id": current.ID,
		"total":      len(h.store.History()),
	})
}

// HandleSplit handles the project_split tool call.
func (h *Handlers) HandleSplit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SplitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p, ok := h.resolve(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	pieces := renderProject(p)
	return successResult(SplitResult{Pieces: pieces, Total: len(pieces)})
}

// HandleTextSplit handles the text_split tool call.
func (h *Handlers) HandleTextSplit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TextSplitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Text == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	maxLength := input.MaxLength
	if maxLength == 0 {
		maxLength = h.cfg.DefaultSplitLength
	}

	pieces := chunk.Render(input.Text, project.ClampSplitLength(maxLength), input.Prefix, input.Suffix)
	return successResult(SplitResult{Pieces: pieces, Total: len(pieces)})
}

// HandleSyncMerge handles the sync_merge tool call.
func (h *Handlers) HandleSyncMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.client == nil {
		return errorResult(errors.NewInvalidRequest("no remote configured")), nil
	}
	identity := store.IdentityFromNamespace(h.store.Namespace())
	if identity == "" {
		return errorResult(errors.NewInvalidRequest("sign in required before syncing")), nil
	}

	entries, err := h.client.ListAll(ctx, identity)
	if err != nil {
		return errorResult(err), nil
	}

	added := h.store.MergeRemote(entries)
	return successResult(MergeResult{Added: added, Total: len(h.store.History())})
}

// resolve returns the project for id, or the current project when id is empty.
func (h *Handlers) resolve(id string) (project.Project, bool) {
	if id == "" {
		return h.store.Current()
	}
	for _, p := range h.store.History() {
		if p.ID == id {
			return p, true
		}
	}
	return project.Project{}, false
}

// renderProject renders a project's chunks with its own settings.
func renderProject(p project.Project) []chunk.Piece {
	if p.Text == "" {
		return nil
	}
	s := p.Settings
	return chunk.Render(p.Text, project.ClampSplitLength(s.SplitLength), s.Prefix, s.Suffix)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking paths or SQL errors.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := err.(*errors.ShardError); ok {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
