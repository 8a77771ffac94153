package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/csvio"
	"github.com/hpungsan/leadsync/internal/discovery"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/mapping"
)

// DiscoverInput contains parameters for the Discover operation.
type DiscoverInput struct {
	ListID string // required
}

// DiscoverOutput contains the result of the Discover operation.
type DiscoverOutput struct {
	ListID  string         `json:"list_id"`
	Fields  []*field.Field `json:"fields"`
	Warning string         `json:"warning,omitempty"`
}

// Discover samples a board and returns the fields it found. A failed
// sample or an empty board is reported as a warning, not an error.
func Discover(ctx context.Context, sampler board.Sampler, cfg *config.Config, logger *zap.Logger, input DiscoverInput) (*DiscoverOutput, error) {
	listID, err := requireListID(input.ListID)
	if err != nil {
		return nil, err
	}
	schema, warning := discover(ctx, sampler, cfg, logger, listID)
	return &DiscoverOutput{ListID: listID, Fields: schema.Fields(), Warning: warning}, nil
}

// discover runs schema discovery, folding any failure into a warning.
func discover(ctx context.Context, sampler board.Sampler, cfg *config.Config, logger *zap.Logger, listID string) (*field.Schema, string) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	schema, err := discovery.New(sampler, cfg.EffectiveSampleSize(), logger).Discover(ctx, listID)
	switch {
	case err != nil:
		return schema, err.Error()
	case schema.Len() == 0:
		return schema, "no discoverable fields: board has no sampled records"
	}
	return schema, ""
}

// MapInput contains parameters for the MapColumns operation.
// Headers are taken from Path's first row when Headers is empty.
type MapInput struct {
	ListID  string   // required
	Headers []string // optional
	Path    string   // optional csv file
}

// MapOutput contains the result of the MapColumns operation.
type MapOutput struct {
	ListID  string          `json:"list_id"`
	Mapping mapping.Mapping `json:"mapping"`
	Warning string          `json:"warning,omitempty"`
}

// MapColumns discovers a board's schema and maps headers onto it. With an
// empty schema every header is reported unmapped.
func MapColumns(ctx context.Context, sampler board.Sampler, cfg *config.Config, logger *zap.Logger, input MapInput) (*MapOutput, error) {
	listID, err := requireListID(input.ListID)
	if err != nil {
		return nil, err
	}

	headers := input.Headers
	if len(headers) == 0 {
		if input.Path == "" {
			return nil, errors.NewInvalidRequest("headers or a csv path is required")
		}
		t, err := csvio.ReadFile(input.Path)
		if err != nil {
			return nil, errors.NewFileUnreadable(input.Path, err)
		}
		headers = t.Header
	}

	schema, warning := discover(ctx, sampler, cfg, logger, listID)
	return &MapOutput{
		ListID:  listID,
		Mapping: mapping.Map(headers, schema, field.Columns),
		Warning: warning,
	}, nil
}
