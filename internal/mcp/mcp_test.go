package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/boardtest"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/ops"
)

const testListID = "list-1"

// testSetup creates a temporary database, a config pointing at testListID
// and a board with Company, Email and Phone fields.
func testSetup(t *testing.T) (*sql.DB, *config.Config, *boardtest.FakeBoard) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.ListID = testListID

	b := boardtest.WithFields(testListID,
		board.FieldValue{ID: "f-company", Name: "Company", Type: "short_text"},
		board.FieldValue{ID: "f-email", Name: "Email", Type: "email"},
		board.FieldValue{ID: "f-phone", Name: "Phone", Type: "phone"},
	)
	return database, cfg, b
}

// storeRun processes a small CSV into a run and returns its id.
func storeRun(t *testing.T, database *sql.DB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hubspot.csv")
	content := "First Name,Last Name,Email,Phone Number\nJane,Doe,jane@acme.com,555-123-4567\nBob,Ray,bob@ray.co,\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	out, err := ops.Process(context.Background(), database, cfg, nil, ops.ProcessInput{Paths: []string{path}})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return out.RunID
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleDiscover(t *testing.T) {
	database, cfg, b := testSetup(t)
	h := NewHandlers(database, b, cfg, nil)

	result, err := h.HandleDiscover(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	if output["list_id"] != testListID {
		t.Errorf("list_id = %v, want configured %s", output["list_id"], testListID)
	}
	fields, ok := output["fields"].([]any)
	if !ok || len(fields) != 3 {
		t.Fatalf("fields = %v, want 3 entries", output["fields"])
	}
	first := fields[0].(map[string]any)
	if first["name"] != "Company" || first["type"] != "text" {
		t.Errorf("fields[0] = %v, want Company/text", first)
	}
}

func TestHandleDiscover_NoBoard(t *testing.T) {
	database, cfg, _ := testSetup(t)
	h := NewHandlers(database, nil, cfg, nil)

	result, err := h.HandleDiscover(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleMap(t *testing.T) {
	database, cfg, b := testSetup(t)
	h := NewHandlers(database, b, cfg, nil)

	result, err := h.HandleMap(context.Background(), makeRequest(map[string]any{
		"list_id": testListID,
		"headers": []any{"Full Name", "Email", "Phone"},
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	m := output["mapping"].(map[string]any)
	columns := m["columns"].(map[string]any)
	if columns["Email"] != "f-email" || columns["Phone"] != "f-phone" {
		t.Errorf("columns = %v", columns)
	}
	unmapped := m["unmapped"].([]any)
	if len(unmapped) != 1 || unmapped[0] != "Full Name" {
		t.Errorf("unmapped = %v, want [Full Name]", unmapped)
	}
}

func TestHandleMap_BadArguments(t *testing.T) {
	database, cfg, b := testSetup(t)
	h := NewHandlers(database, b, cfg, nil)

	result, err := h.HandleMap(context.Background(), makeRequest(map[string]any{"headers": "Email"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleCoerce(t *testing.T) {
	database, cfg, _ := testSetup(t)
	h := NewHandlers(database, nil, cfg, nil)

	tests := []struct {
		name      string
		args      map[string]any
		wantError string
		outcome   string
		value     any
	}{
		{
			name:    "phone",
			args:    map[string]any{"raw": "15551234567", "type": "phone"},
			outcome: "accepted",
			value:   "+1 555 123 4567",
		},
		{
			name:    "bad email",
			args:    map[string]any{"raw": "not-an-email", "type": "email"},
			outcome: "rejected",
		},
		{
			name: "dropdown",
			args: map[string]any{"raw": "Real Estate", "type": "drop_down", "options": []any{
				map[string]any{"label": "Real Estate", "id": "re"},
			}},
			outcome: "accepted",
			value:   "re",
		},
		{
			name:      "missing type",
			args:      map[string]any{"raw": "x"},
			wantError: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCoerce(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError != "" {
				assertErrorCode(t, result, tt.wantError)
				return
			}
			output := parseOutput(t, result)
			if output["outcome"] != tt.outcome {
				t.Errorf("outcome = %v, want %s", output["outcome"], tt.outcome)
			}
			if tt.value != nil && output["value"] != tt.value {
				t.Errorf("value = %v, want %v", output["value"], tt.value)
			}
		})
	}
}

func TestHandleLeadsAndRuns(t *testing.T) {
	database, cfg, _ := testSetup(t)
	h := NewHandlers(database, nil, cfg, nil)
	ctx := context.Background()

	result, err := h.HandleLeads(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")

	runID := storeRun(t, database, cfg)

	result, err = h.HandleLeads(ctx, makeRequest(map[string]any{"run_id": runID, "limit": 1}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	items := output["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["name"] != "Jane Doe" {
		t.Errorf("items = %v, want [Jane Doe]", items)
	}
	pagination := output["pagination"].(map[string]any)
	if pagination["total"] != float64(2) || pagination["has_more"] != true {
		t.Errorf("pagination = %v", pagination)
	}

	result, err = h.HandleRuns(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output = parseOutput(t, result)
	runs := output["items"].([]any)
	if len(runs) != 1 || runs[0].(map[string]any)["id"] != runID {
		t.Errorf("runs = %v, want [%s]", runs, runID)
	}
}

func TestServerRegistration(t *testing.T) {
	database, cfg, b := testSetup(t)

	tools := NewServer(database, b, cfg, nil, "test").ListTools()
	if len(tools) != len(toolRegistry) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry))
	}
	for _, name := range AllToolNames() {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, b := testSetup(t)
	cfg.DisabledTools = []string{"value_coerce", "lead_runs", "lead_runs"}

	tools := NewServer(database, b, cfg, nil, "test").ListTools()
	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	for _, name := range []string{"value_coerce", "lead_runs"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, b := testSetup(t)
	cfg.DisabledTools = AllToolNames()

	if tools := NewServer(database, b, cfg, nil, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"board_discover", "tasks_delete", "bogus"})
	if len(unknown) != 2 || unknown[0] != "tasks_delete" || unknown[1] != "bogus" {
		t.Errorf("ValidateDisabledTools() = %v, want [tasks_delete bogus]", unknown)
	}
	if unknown := ValidateDisabledTools(nil); len(unknown) != 0 {
		t.Errorf("ValidateDisabledTools(nil) = %v, want empty", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	want := []string{"board_discover", "columns_map", "lead_runs", "leads_list", "value_coerce"}
	got := AllToolNames()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("AllToolNames() = %v, want %v", got, want)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedLeadError(t *testing.T) {
	r := errorResult(fmt.Errorf("upload: %w", errors.NewNoDiscoverableFields(testListID)))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrNoDiscoverableFields) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNoDiscoverableFields)
	}
	if _, ok := errObj["details"]; !ok {
		t.Error("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) || errObj["message"] != "an internal error occurred" {
		t.Errorf("error = %v, want generic INTERNAL", errObj)
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error result, got success")
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %v, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
