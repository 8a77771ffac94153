package ops

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/coerce"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/lead"
	"github.com/hpungsan/leadsync/internal/logging"
	"github.com/hpungsan/leadsync/internal/mapping"
	"github.com/hpungsan/leadsync/internal/upload"
)

// UploadInput contains parameters for the Upload operation.
type UploadInput struct {
	RunID  string // optional, default: latest run
	ListID string // required
	Limit  int    // optional test mode: upload only the first Limit leads
}

// UploadOutput contains the result of the Upload operation.
type UploadOutput struct {
	RunID   string          `json:"run_id"`
	ListID  string          `json:"list_id"`
	Mapping mapping.Mapping `json:"mapping"`
	Results []upload.Result `json:"results"`
	Warning string          `json:"warning,omitempty"`
	Summary Summary         `json:"summary"`
}

// Upload sends the leads of a stored run to a board.
//
// The board schema is discovered and the lead table's columns mapped once,
// before any task is created. An empty schema stops the upload with
// NO_DISCOVERABLE_FIELDS. Per-lead failures are counted and stored, never
// fatal. On cancellation the outcomes so far are stored and returned along
// with a CANCELLED error.
func Upload(ctx context.Context, database *sql.DB, b board.Board, cfg *config.Config, logger *zap.Logger, input UploadInput) (*UploadOutput, error) {
	logger = logging.OrNop(logger)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	listID, err := requireListID(input.ListID)
	if err != nil {
		return nil, err
	}

	run, err := resolveRun(database, input.RunID)
	if err != nil {
		return nil, err
	}
	leads, err := db.ListLeads(ctx, database, run.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	schema, warning := discover(ctx, b, cfg, logger, listID)
	if schema.Len() == 0 {
		logger.Error("cannot proceed: no discoverable fields",
			zap.String("list_id", listID), zap.String("reason", warning))
		return nil, errors.NewNoDiscoverableFields(listID)
	}

	headers := lead.Headers(leads)
	if !slices.Contains(headers, lead.ColOpportunityType) {
		headers = append(headers, lead.ColOpportunityType)
	}
	m := mapping.Map(headers, schema, field.Columns)
	if len(m.Unmapped) > 0 {
		logger.Info("columns left unmapped", zap.Strings("columns", m.Unmapped))
	}

	items := make([]upload.Item, len(leads))
	for i, r := range leads {
		items[i] = upload.FromRecord(r, i+1)
	}

	uploader := upload.New(b, coerce.NewEngine(logger), logger)
	report, upErr := uploader.UploadAll(ctx, items, upload.Plan{ListID: listID, Schema: schema, Mapping: m}, upload.Options{
		BatchSize:  cfg.BatchSize,
		BatchPause: cfg.BatchPause(),
		Limit:      input.Limit,
	})
	if report == nil {
		return nil, upErr
	}

	if err := db.InsertUploads(database, uploadRows(run.ID, listID, report.Results, time.Now())); err != nil {
		return nil, err
	}

	out := &UploadOutput{
		RunID:   run.ID,
		ListID:  listID,
		Mapping: m,
		Results: report.Results,
		Warning: warning,
		Summary: runSummary(run),
	}
	out.Summary.Mapped = len(m.Matches)
	out.Summary.Unmapped = len(m.Unmapped)
	out.Summary.Uploaded = report.Uploaded
	out.Summary.Failed = report.Failed
	out.Summary.PhonePartial = report.PhonePartial
	return out, upErr
}

// resolveRun returns the given run, or the latest one when id is empty.
func resolveRun(database *sql.DB, id string) (*db.Run, error) {
	if id == "" {
		return db.LatestRun(database)
	}
	return db.GetRun(database, id)
}

func runSummary(run *db.Run) Summary {
	return Summary{
		RunID:       run.ID,
		Files:       run.Files,
		FilesFailed: run.FilesFailed,
		Processed:   run.Processed,
		Duplicates:  run.Duplicates,
		Invalid:     run.Invalid,
		Validated:   run.Kept,
	}
}

func uploadRows(runID, listID string, results []upload.Result, at time.Time) []db.Upload {
	rows := make([]db.Upload, len(results))
	for i, r := range results {
		rows[i] = db.Upload{
			RunID:     runID,
			Position:  r.Position,
			ListID:    listID,
			TaskID:    r.TaskID,
			Status:    string(r.State),
			Error:     r.Error,
			CreatedAt: at.Unix(),
		}
	}
	return rows
}

// RunInput contains parameters for the Run operation.
type RunInput struct {
	Paths  []string
	Format string
	ListID string
	Limit  int
}

// RunOutput contains the result of the Run operation.
type RunOutput struct {
	Process *ProcessOutput `json:"process"`
	Upload  *UploadOutput  `json:"upload,omitempty"`
	Summary Summary        `json:"summary"`
}

// Run processes files into a new run and uploads it.
func Run(ctx context.Context, database *sql.DB, b board.Board, cfg *config.Config, logger *zap.Logger, input RunInput) (*RunOutput, error) {
	if _, err := requireListID(input.ListID); err != nil {
		return nil, err
	}
	processed, err := Process(ctx, database, cfg, logger, ProcessInput{Paths: input.Paths, Format: input.Format})
	if err != nil {
		return nil, err
	}
	out := &RunOutput{Process: processed, Summary: processed.Summary}

	uploaded, err := Upload(ctx, database, b, cfg, logger, UploadInput{
		RunID:  processed.RunID,
		ListID: input.ListID,
		Limit:  input.Limit,
	})
	if uploaded != nil {
		out.Upload = uploaded
		out.Summary = uploaded.Summary
	}
	return out, err
}
