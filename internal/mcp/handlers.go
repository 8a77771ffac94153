package mcp

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/logging"
	"github.com/hpungsan/leadsync/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	board  board.Board // nil when no API token is configured
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, b board.Board, cfg *config.Config, logger *zap.Logger) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{db: db, board: b, cfg: cfg, logger: logging.OrNop(logger)}
}

// DiscoverRequest represents the arguments for board_discover.
type DiscoverRequest struct {
	ListID string `json:"list_id,omitempty"`
}

// MapRequest represents the arguments for columns_map.
type MapRequest struct {
	ListID  string   `json:"list_id,omitempty"`
	Headers []string `json:"headers,omitempty"`
	Path    string   `json:"path,omitempty"`
}

// CoerceRequest represents the arguments for value_coerce.
type CoerceRequest struct {
	Raw     string         `json:"raw"`
	Type    string         `json:"type"`
	Options []field.Option `json:"options,omitempty"`
}

// LeadsRequest represents the arguments for leads_list.
type LeadsRequest struct {
	RunID  string `json:"run_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// RunsRequest represents the arguments for lead_runs.
type RunsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// requireBoard reports a missing API token as an invalid request.
func (h *Handlers) requireBoard() error {
	if h.board == nil {
		return errors.NewInvalidRequest("board access requires an API token (api_token config or CLICKUP_TOKEN)")
	}
	return nil
}

func (h *Handlers) listID(requested string) string {
	if requested != "" {
		return requested
	}
	return h.cfg.ListID
}

// HandleDiscover handles the board_discover tool call.
func (h *Handlers) HandleDiscover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DiscoverRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireBoard(); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Discover(ctx, h.board, h.cfg, h.logger, ops.DiscoverInput{ListID: h.listID(input.ListID)})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMap handles the columns_map tool call.
func (h *Handlers) HandleMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MapRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.requireBoard(); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.MapColumns(ctx, h.board, h.cfg, h.logger, ops.MapInput{
		ListID:  h.listID(input.ListID),
		Headers: input.Headers,
		Path:    input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCoerce handles the value_coerce tool call.
func (h *Handlers) HandleCoerce(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CoerceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Coerce(ops.CoerceInput{Raw: input.Raw, Type: input.Type, Options: input.Options})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLeads handles the leads_list tool call.
func (h *Handlers) HandleLeads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LeadsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Leads(ctx, h.db, ops.LeadsInput{RunID: input.RunID, Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRuns handles the lead_runs tool call.
func (h *Handlers) HandleRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Runs(h.db, ops.RunsInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult converts an error to an MCP error result.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var leadErr *errors.LeadError
	if stderrors.As(err, &leadErr) {
		errorObj := map[string]any{
			"code":    leadErr.Code,
			"message": leadErr.Message,
			"status":  leadErr.Status,
		}
		// internal details may carry file paths or SQL
		if leadErr.Code != errors.ErrInternal && leadErr.Details != nil {
			errorObj["details"] = leadErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := sonic.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates a successful MCP result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
