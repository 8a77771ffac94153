package ops

import (
	"strings"

	"github.com/hpungsan/leadsync/internal/coerce"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/field"
)

// CoerceInput contains parameters for the Coerce operation.
type CoerceInput struct {
	Raw     string
	Type    string         // raw board type tag, e.g. "email", "drop_down"
	Options []field.Option // single-select only
}

// CoerceOutput contains the result of the Coerce operation.
type CoerceOutput struct {
	Value   any    `json:"value"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// Coerce converts one raw value for a field of the given type, the same
// way upload does.
func Coerce(input CoerceInput) (*CoerceOutput, error) {
	if strings.TrimSpace(input.Type) == "" {
		return nil, errors.NewInvalidRequest("field type is required")
	}
	s := field.NewSchema()
	s.Put(field.Field{Name: "value", Type: field.ParseType(input.Type), Options: input.Options})
	f, _ := s.FieldByName("value")

	res := coerce.Value(input.Raw, f)
	return &CoerceOutput{Value: res.Value, Outcome: res.Outcome.String(), Reason: res.Reason}, nil
}
