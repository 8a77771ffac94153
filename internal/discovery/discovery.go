// Package discovery infers a board's custom-field schema from its existing
// records.
//
// The board offers no reliable "list fields" call, so the schema is read off
// a small sample of tasks, closed ones included. A field that is attached to
// none of the sampled tasks will not be discovered; raising the sample size
// narrows that gap but cannot close it.
package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/logging"
)

// DefaultSampleSize is the number of records sampled when none is configured.
const DefaultSampleSize = 5

// Discoverer builds schemas by sampling a board.
type Discoverer struct {
	sampler    board.Sampler
	sampleSize int
	logger     *zap.Logger
}

// New returns a Discoverer. A non-positive sampleSize uses DefaultSampleSize.
func New(sampler board.Sampler, sampleSize int, logger *zap.Logger) *Discoverer {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Discoverer{sampler: sampler, sampleSize: sampleSize, logger: logging.OrNop(logger)}
}

// Discover samples listID and returns its schema.
//
// The returned schema is never nil. A failed sample call yields an empty
// schema together with a DISCOVERY_FAILED error; a board with no records
// yields an empty schema and no error.
func (d *Discoverer) Discover(ctx context.Context, listID string) (*field.Schema, error) {
	log := d.logger.With(zap.String("list_id", listID))

	records, err := d.sampler.SampleRecords(ctx, listID, d.sampleSize, true)
	if err != nil {
		log.Warn("schema discovery failed", zap.Error(err))
		return field.NewSchema(), errors.NewDiscoveryFailed(listID, err)
	}
	if len(records) == 0 {
		log.Warn("board has no records to sample; schema is empty")
		return field.NewSchema(), nil
	}

	schema := FromRecords(records)
	log.Info("schema discovered",
		zap.Int("sampled", len(records)),
		zap.Int("fields", schema.Len()),
	)
	return schema, nil
}

// FromRecords builds a schema from sampled records. Later records override
// earlier ones for the same field name.
func FromRecords(records []board.Record) *field.Schema {
	schema := field.NewSchema()
	for _, r := range records {
		for _, fv := range r.CustomFields {
			if strings.TrimSpace(fv.ID) == "" || strings.TrimSpace(fv.Name) == "" {
				continue
			}
			f := field.Field{
				ID:       fv.ID,
				Name:     fv.Name,
				Type:     field.ParseType(fv.Type),
				Required: fv.Required,
			}
			if f.Type == field.TypeSingleSelect {
				f.Options = options(fv.TypeConfig.Options)
			}
			schema.Put(f)
		}
	}
	return schema
}

func options(cfg []board.OptionConfig) []field.Option {
	var out []field.Option
	for _, o := range cfg {
		label := strings.TrimSpace(o.DisplayName())
		if o.ID == "" || label == "" {
			continue
		}
		out = append(out, field.Option{Label: label, ID: o.ID})
	}
	return out
}
