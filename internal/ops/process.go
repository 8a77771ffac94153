package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/dedup"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/lead"
	"github.com/hpungsan/leadsync/internal/logging"
)

// ProcessInput contains parameters for the Process operation.
type ProcessInput struct {
	Paths  []string // required
	Format string   // optional; detected per file from its name when empty
}

// FileSummary reports one input file.
type FileSummary struct {
	Path       string `json:"path"`
	Format     string `json:"format,omitempty"`
	Source     string `json:"source,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Headerless bool   `json:"headerless,omitempty"`
	Rows       int    `json:"rows"`
	RowErrors  int    `json:"row_errors,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProcessOutput contains the result of the Process operation.
type ProcessOutput struct {
	RunID   string        `json:"run_id"`
	Files   []FileSummary `json:"files"`
	Summary Summary       `json:"summary"`
}

// Process normalizes every input file, deduplicates and validates the
// combined records, and stores the survivors as a new run. A file that
// cannot be read or lacks its format's columns is skipped and counted.
func Process(ctx context.Context, database *sql.DB, cfg *config.Config, logger *zap.Logger, input ProcessInput) (*ProcessOutput, error) {
	logger = logging.OrNop(logger)
	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one csv file is required")
	}

	var format lead.Format
	if strings.TrimSpace(input.Format) != "" {
		f, ok := lead.ParseFormat(input.Format)
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want arizona, cto, hubspot or generic)", input.Format))
		}
		format = f
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	normalizer := lead.NewNormalizer(cfg.DefaultValue, logger)

	out := &ProcessOutput{Files: make([]FileSummary, 0, len(input.Paths))}
	var combined []lead.Record
	for _, path := range input.Paths {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("process")
		}
		out.Summary.Files++

		res, err := normalizer.NormalizeFile(path, format)
		if err != nil {
			logger.Error("file skipped", zap.String("file", path), zap.Error(err))
			out.Summary.FilesFailed++
			out.Files = append(out.Files, FileSummary{Path: path, Error: err.Error()})
			continue
		}
		logger.Info("file normalized",
			zap.String("file", path),
			zap.String("source", res.Source),
			zap.Int("records", len(res.Records)),
		)
		out.Files = append(out.Files, FileSummary{
			Path:       path,
			Format:     string(res.Format),
			Source:     res.Source,
			Encoding:   res.Encoding,
			Headerless: res.Headerless,
			Rows:       res.Rows,
			RowErrors:  res.RowErrors,
		})
		combined = append(combined, res.Records...)
	}

	kept, stats := dedup.Process(combined)
	out.Summary.Processed = stats.Input
	out.Summary.Duplicates = stats.Duplicates
	out.Summary.Invalid = stats.Invalid
	out.Summary.Validated = stats.Kept

	now := time.Now()
	id, err := newRunID(now)
	if err != nil {
		return nil, err
	}
	run := &db.Run{
		ID:          id,
		CreatedAt:   now.Unix(),
		Files:       out.Summary.Files,
		FilesFailed: out.Summary.FilesFailed,
		Processed:   stats.Input,
		Duplicates:  stats.Duplicates,
		Invalid:     stats.Invalid,
		Kept:        stats.Kept,
	}
	if err := db.InsertRun(database, run, kept); err != nil {
		return nil, err
	}

	out.RunID = id
	out.Summary.RunID = id
	logger.Info("run stored",
		zap.String("run_id", id),
		zap.Int("processed", stats.Input),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("invalid", stats.Invalid),
		zap.Int("kept", stats.Kept),
	)
	return out, nil
}
