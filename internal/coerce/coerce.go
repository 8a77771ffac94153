// Package coerce converts raw CSV strings into the representation a board
// field type accepts.
//
// Coercion never fails: a value that cannot be converted is reported as
// omitted and the caller leaves the field out of its payload.
package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/logging"
)

// Outcome classifies a coercion.
type Outcome int

const (
	Accepted Outcome = iota
	Absent           // empty or placeholder input
	Rejected         // input present but unusable for the field type
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Absent:
		return "absent"
	default:
		return "rejected"
	}
}

// Result is the outcome of coercing one value.
type Result struct {
	Value   any
	Outcome Outcome
	Reason  string // set when Rejected
}

// OK reports whether the value should be sent.
func (r Result) OK() bool { return r.Outcome == Accepted }

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// Value coerces raw for f.
func Value(raw string, f *field.Field) Result {
	if field.IsAbsent(raw) {
		return Result{Outcome: Absent}
	}
	switch f.Type {
	case field.TypeEmail:
		if v, ok := Email(raw); ok {
			return accept(v)
		}
		return reject("not an email address")
	case field.TypePhone:
		if v, ok := Phone(raw); ok {
			return accept(v)
		}
		return reject("phone must have 10 digits, or 11 starting with 1")
	case field.TypeURL:
		return accept(URL(raw))
	case field.TypeSingleSelect:
		if len(f.Options) == 0 {
			return reject("dropdown has no options")
		}
		if id, ok := Option(raw, f.Options); ok {
			return accept(id)
		}
		return reject(fmt.Sprintf("no option matches; options are %v", f.OptionLabels()))
	case field.TypeCurrency:
		return accept(Currency(raw))
	default:
		return accept(strings.TrimSpace(raw))
	}
}

func accept(v any) Result { return Result{Value: v, Outcome: Accepted} }

func reject(reason string) Result { return Result{Outcome: Rejected, Reason: reason} }

// Email lowercases and trims raw, drops any confidence prefix such as
// "97% " (everything up to the last '%'), and validates the result.
func Email(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndex(v, "%"); i >= 0 {
		v = strings.TrimSpace(v[i+1:])
	}
	if !emailRegex.MatchString(v) {
		return "", false
	}
	return v, true
}

// Phone formats a North American number as "+1 XXX XXX XXXX". The board
// rejects any other delimiter.
func Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}
	return fmt.Sprintf("+1 %s %s %s", digits[:3], digits[3:6], digits[6:]), true
}

// URL prepends https:// when raw has no scheme.
func URL(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.Contains(v, "://") {
		return v
	}
	return "https://" + v
}

// Option returns the identifier of the option matching raw: an exact
// case-insensitive label match first, then the first label that contains
// or is contained in raw. It never invents an identifier.
func Option(raw string, options []field.Option) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o.Label)) == v {
			return o.ID, true
		}
	}
	for _, o := range options {
		label := strings.ToLower(strings.TrimSpace(o.Label))
		if label == "" {
			continue
		}
		if strings.Contains(label, v) || strings.Contains(v, label) {
			return o.ID, true
		}
	}
	return "", false
}

// Currency keeps digits and dots and parses the rest; anything unparsable
// is zero.
func Currency(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// Engine coerces values and logs what it drops.
type Engine struct {
	logger *zap.Logger
}

// NewEngine returns an Engine logging to logger.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logging.OrNop(logger)}
}

// Coerce returns the value to send for f and whether to send it.
// Rejections are logged at warn level with the raw input.
func (e *Engine) Coerce(raw string, f *field.Field) (any, bool) {
	res := Value(raw, f)
	switch res.Outcome {
	case Absent:
		e.logger.Debug("absent value omitted", zap.String("field", f.Name))
	case Rejected:
		e.logger.Warn("value rejected; field omitted",
			zap.String("raw", raw),
			zap.String("field", f.Name),
			zap.String("field_type", string(f.Type)),
			zap.String("reason", res.Reason),
		)
	}
	return res.Value, res.OK()
}
