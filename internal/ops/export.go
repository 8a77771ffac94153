package ops

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/hpungsan/leadsync/internal/csvio"
	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/lead"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	RunID string // optional, default: latest run
	Path  string // optional, default: <baseDir>/exports/leads-<run id>.csv
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	RunID      string `json:"run_id"`
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes a run's combined lead table to a CSV file. The canonical
// columns come first, then pass-through columns in name order.
func Export(ctx context.Context, database *sql.DB, baseDir string, input ExportInput) (*ExportOutput, error) {
	run, err := resolveRun(database, input.RunID)
	if err != nil {
		return nil, err
	}

	path := input.Path
	if path == "" {
		path = filepath.Join(DefaultExportsDir(baseDir), "leads-"+SanitizeForFilename(run.ID)+".csv")
	}
	if err := ValidateExportPath(path); err != nil {
		return nil, err
	}

	leads, err := db.ListLeads(ctx, database, run.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	headers := lead.Headers(leads)
	if err := csvio.WriteFile(path, headers, lead.Rows(leads, headers)); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ExportOutput{
		RunID:      run.ID,
		Path:       path,
		Count:      len(leads),
		ExportedAt: time.Now().Unix(),
	}, nil
}
