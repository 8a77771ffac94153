package mcp

import "github.com/mark3labs/mcp-go/mcp"

var discoverToolDef = mcp.NewTool("board_discover",
	mcp.WithDescription("Sample a board's existing tasks and report the custom fields found: id, name, type and dropdown options. Fields attached to none of the sampled tasks are not reported."),
	mcp.WithString("list_id", mcp.Description("Board list id; defaults to the configured list")),
)

var mapToolDef = mcp.NewTool("columns_map",
	mcp.WithDescription("Map CSV column headers onto a board's discovered fields. Returns the header to field assignments and the headers left unmapped."),
	mcp.WithString("list_id", mcp.Description("Board list id; defaults to the configured list")),
	mcp.WithArray("headers",
		mcp.Description("Column headers to map"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("path", mcp.Description("CSV file whose first row supplies the headers when headers is omitted")),
)

var coerceToolDef = mcp.NewTool("value_coerce",
	mcp.WithDescription("Convert one raw value the way upload would for a field of the given type, or report why it would be omitted."),
	mcp.WithString("raw", mcp.Required(), mcp.Description("Raw cell value")),
	mcp.WithString("type", mcp.Required(),
		mcp.Description("Board field type tag"),
		mcp.Enum("text", "short_text", "email", "phone", "url", "currency", "drop_down"),
	),
	mcp.WithArray("options",
		mcp.Description("Dropdown options for drop_down fields"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label": map[string]any{"type": "string"},
				"id":    map[string]any{"type": "string"},
			},
			"required": []string{"label", "id"},
		}),
	),
)

var leadsToolDef = mcp.NewTool("leads_list",
	mcp.WithDescription("List the combined, deduplicated lead table of a processing run."),
	mcp.WithString("run_id", mcp.Description("Run id; defaults to the latest run")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Rows to skip")),
)

var runsToolDef = mcp.NewTool("lead_runs",
	mcp.WithDescription("List processing runs newest first, with their processed, duplicate, invalid and kept counts."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Runs to skip")),
)
