// Package board defines the narrow interface the core uses to talk to a
// remote task board. Transport details live in implementations.
package board

import "context"

// OptionConfig is one dropdown option as the board reports it.
type OptionConfig struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
}

// DisplayName returns the option's label, preferring Name.
func (o OptionConfig) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Label
}

// TypeConfig carries type-specific field configuration.
type TypeConfig struct {
	Options []OptionConfig `json:"options,omitempty"`
}

// FieldValue is one custom-field entry on a sampled record.
type FieldValue struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	TypeConfig TypeConfig `json:"type_config"`
	Required   bool       `json:"required"`
	Value      any        `json:"value,omitempty"`
}

// Record is one existing task sampled from a board.
type Record struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CustomFields []FieldValue `json:"custom_fields"`
}

// CustomField is a field identifier and value pair in a payload.
type CustomField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Payload is the body of a create or update call.
type Payload struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// Sampler retrieves existing records from a board.
type Sampler interface {
	SampleRecords(ctx context.Context, listID string, limit int, includeClosed bool) ([]Record, error)
}

// Writer creates and updates records on a board.
type Writer interface {
	// CreateRecord creates a task and returns its identifier.
	CreateRecord(ctx context.Context, listID string, p Payload) (string, error)
	// UpdateRecord sets the payload's custom fields on an existing task.
	UpdateRecord(ctx context.Context, taskID string, p Payload) error
}

// Board is a Sampler and a Writer.
type Board interface {
	Sampler
	Writer
}
