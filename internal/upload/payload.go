package upload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/coerce"
	"github.com/hpungsan/leadsync/internal/field"
	"github.com/hpungsan/leadsync/internal/lead"
	"github.com/hpungsan/leadsync/internal/mapping"
)

// Item is one row to upload: a task name, a description and raw values by
// column header.
type Item struct {
	Name        string
	Description string
	Values      map[string]string
}

// FromRecord builds an Item from a lead. n is the lead's 1-based position,
// used to name leads that have no name.
func FromRecord(r lead.Record, n int) Item {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = fmt.Sprintf("Lead %d", n)
	}

	source := r.Source
	if source == "" {
		source = "Unknown"
	}
	lines := []string{"Lead from " + source}
	if r.Title != "" {
		lines = append(lines, "Title: "+r.Title)
	}
	if r.Industry != "" {
		lines = append(lines, "Industry: "+r.Industry)
	}

	values := make(map[string]string, len(lead.Columns)+len(r.Extra))
	for h, v := range r.Extra {
		values[h] = v
	}
	for _, c := range lead.Columns {
		if v := r.Get(c); v != "" {
			values[c] = v
		}
	}
	if _, ok := values[lead.ColOpportunityType]; !ok {
		values[lead.ColOpportunityType] = lead.OpportunityType(r.Title)
	}
	return Item{Name: name, Description: strings.Join(lines, "\n"), Values: values}
}

// Plan is the read-only context shared by every upload in a run.
type Plan struct {
	ListID  string
	Schema  *field.Schema
	Mapping mapping.Mapping
}

// Payloads splits an item into the create payload and the phone-only
// update payload. omitted lists fields that had a value but none coerced.
func Payloads(item Item, plan Plan, engine *coerce.Engine) (create, phone board.Payload, omitted []string) {
	if engine == nil {
		engine = coerce.NewEngine(nil)
	}
	create = board.Payload{Name: item.Name, Description: item.Description}

	for _, f := range plan.Schema.Fields() {
		candidates := candidatesFor(f.ID, plan.Mapping)
		if len(candidates) == 0 {
			continue
		}
		var (
			value    any
			accepted bool
			present  bool
		)
		for _, header := range candidates {
			raw, ok := item.Values[header]
			if !ok || field.IsAbsent(raw) {
				continue
			}
			present = true
			if value, accepted = engine.Coerce(raw, f); accepted {
				break
			}
		}
		if !accepted {
			if present {
				omitted = append(omitted, f.Name)
			}
			continue
		}
		cf := board.CustomField{ID: f.ID, Value: value}
		if f.Type == field.TypePhone {
			phone.CustomFields = append(phone.CustomFields, cf)
		} else {
			create.CustomFields = append(create.CustomFields, cf)
		}
	}
	return create, phone, omitted
}

// candidatesFor returns the headers mapped to fieldID, best first: exact
// matches, then higher scores, then header order.
func candidatesFor(fieldID string, m mapping.Mapping) []string {
	var matches []mapping.Match
	for _, mt := range m.Matches {
		if mt.FieldID == fieldID {
			matches = append(matches, mt)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		ei, ej := matches[i].Kind == mapping.KindExact, matches[j].Kind == mapping.KindExact
		if ei != ej {
			return ei
		}
		return matches[i].Score > matches[j].Score
	})
	headers := make([]string, len(matches))
	for i, mt := range matches {
		headers[i] = mt.Header
	}
	return headers
}
