// Package dedup removes duplicate and unusable lead records.
package dedup

import (
	"strings"

	"github.com/hpungsan/leadsync/internal/lead"
)

// Placeholder is the name produced by joining two missing name parts.
const Placeholder = "nan nan"

// Stats counts what each pass removed.
type Stats struct {
	Input      int `json:"input"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Kept       int `json:"kept"`
}

// Process deduplicates then validates records. The result is a stable
// subsequence of the input; records are never modified.
func Process(records []lead.Record) ([]lead.Record, Stats) {
	deduped := Dedupe(records)
	valid := Validate(deduped)
	return valid, Stats{
		Input:      len(records),
		Duplicates: len(records) - len(deduped),
		Invalid:    len(deduped) - len(valid),
		Kept:       len(valid),
	}
}

type pair struct{ company, name string }

// Dedupe drops a record whose non-empty email, or whose (company, name)
// pair with both parts non-empty, already appeared earlier in records.
// The two rules are checked independently against every earlier record.
func Dedupe(records []lead.Record) []lead.Record {
	emails := make(map[string]bool)
	pairs := make(map[pair]bool)
	out := make([]lead.Record, 0, len(records))

	for _, r := range records {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		p := pair{strings.TrimSpace(r.Company), strings.TrimSpace(r.Name)}
		hasPair := p.company != "" && p.name != ""

		dup := (email != "" && emails[email]) || (hasPair && pairs[p])

		if email != "" {
			emails[email] = true
		}
		if hasPair {
			pairs[p] = true
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// Validate keeps records that pass Valid.
func Validate(records []lead.Record) []lead.Record {
	out := make([]lead.Record, 0, len(records))
	for _, r := range records {
		if Valid(r) {
			out = append(out, r)
		}
	}
	return out
}

// Valid reports whether r has a usable name and a contact channel.
func Valid(r lead.Record) bool {
	name := strings.TrimSpace(r.Name)
	if name == "" || strings.EqualFold(name, Placeholder) {
		return false
	}
	return strings.TrimSpace(r.Email) != "" || strings.TrimSpace(r.Phone) != ""
}
