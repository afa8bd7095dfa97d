package mcp

import "github.com/mark3labs/mcp-go/mcp"

var createToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a fresh project and make it current. "+
		"The new project inherits the split settings of the previous current project."),
)

var listToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List all projects in the active namespace, newest first, "+
		"with character and word counts."),
)

var showToolDef = mcp.NewTool("project_show",
	mcp.WithDescription("Show a project's full text, settings, and stats. "+
		"Defaults to the current project."),
	mcp.WithString("id", mcp.Description("Project id (empty for the current project)")),
)

var updateToolDef = mcp.NewTool("project_update",
	mcp.WithDescription("Edit the current project. Omitted fields are left unchanged. "+
		"A text edit may auto-title a still-untitled project."),
	mcp.WithString("text", mcp.Description("Replacement project text")),
	mcp.WithString("title", mcp.Description("New title (blank resets to the default title)")),
	mcp.WithNumber("split_length", mcp.Description("Max characters per chunk, clamped to [10, 50000]")),
	mcp.WithString("prefix", mcp.Description("Chunk prefix template; {i} and {n} expand to chunk number and total")),
	mcp.WithString("suffix", mcp.Description("Chunk suffix template; {i} and {n} expand to chunk number and total")),
)

var renameToolDef = mcp.NewTool("project_rename",
	mcp.WithDescription("Rename a project by id. A blank title resets to the default title."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
)

var deleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Delete a project by id. Deleting the current project selects "+
		"the next one, or creates a fresh project when none remain."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
)

var splitToolDef = mcp.NewTool("project_split",
	mcp.WithDescription("Render a project's chunk sequence using its own split settings. "+
		"Defaults to the current project."),
	mcp.WithString("id", mcp.Description("Project id (empty for the current project)")),
)

var textSplitToolDef = mcp.NewTool("text_split",
	mcp.WithDescription("Split arbitrary text into chunks without touching any project. "+
		"Prefers newline boundaries, then space boundaries, then a hard cut."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to split")),
	mcp.WithNumber("max_length", mcp.Description("Max characters per chunk (default from config, clamped to [10, 50000])")),
	mcp.WithString("prefix", mcp.Description("Chunk prefix template; {i} and {n} expand to chunk number and total")),
	mcp.WithString("suffix", mcp.Description("Chunk suffix template; {i} and {n} expand to chunk number and total")),
)

var syncMergeToolDef = mcp.NewTool("sync_merge",
	mcp.WithDescription("Fetch the signed-in identity's remote projects and merge them "+
		"into local history. Merging is additive: local entries are never overwritten."),
)
