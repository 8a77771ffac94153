// Package mapping assigns CSV column headers to discovered board fields.
package mapping

import (
	"strings"

	"github.com/hpungsan/leadsync/internal/field"
)

// Kind records how a header was matched.
type Kind string

const (
	KindExact     Kind = "exact"
	KindSubstring Kind = "substring"
	KindPattern   Kind = "pattern"
)

// Match is one header assigned to a field.
type Match struct {
	Header    string `json:"header"`
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name"`
	Kind      Kind   `json:"kind"`
	Score     int    `json:"score"`
}

// Mapping is the result of mapping one header list against a schema.
type Mapping struct {
	Columns  map[string]string `json:"columns"` // header -> field id
	Matches  []Match           `json:"matches"` // in header order
	Unmapped []string          `json:"unmapped"`
}

// MatchFor returns the match for header.
func (m Mapping) MatchFor(header string) (Match, bool) {
	for _, mt := range m.Matches {
		if mt.Header == header {
			return mt, true
		}
	}
	return Match{}, false
}

// Map assigns each header to at most one field of schema.
//
// A case-insensitive exact name match wins outright. Otherwise every field
// is scored by substring containment (length of the contained string) and
// by shared membership in a keyword category of table (length of the
// longest keyword found in the header); the better of the two counts.
// Fields are visited in name order and only a strictly higher score
// replaces the current best, so equal scores resolve to the
// lexicographically smallest field name. Headers scoring zero are unmapped.
// A header repeated in the list is mapped once.
func Map(headers []string, schema *field.Schema, table field.Table) Mapping {
	m := Mapping{Columns: make(map[string]string), Matches: []Match{}, Unmapped: []string{}}
	fields := schema.Fields()
	seen := make(map[string]bool, len(headers))

	for _, h := range headers {
		if seen[h] {
			continue
		}
		seen[h] = true

		mt, ok := matchHeader(h, fields, table)
		if !ok {
			m.Unmapped = append(m.Unmapped, h)
			continue
		}
		m.Columns[h] = mt.FieldID
		m.Matches = append(m.Matches, mt)
	}
	return m
}

func matchHeader(header string, fields []*field.Field, table field.Table) (Match, bool) {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return Match{}, false
	}
	for _, f := range fields {
		if strings.EqualFold(trimmed, strings.TrimSpace(f.Name)) {
			return Match{Header: header, FieldID: f.ID, FieldName: f.Name, Kind: KindExact, Score: len(trimmed)}, true
		}
	}

	var best Match
	for _, f := range fields {
		sub := substringScore(header, f.Name)
		pat := patternScore(header, f.Name, table)
		score, kind := sub, KindSubstring
		if pat > sub {
			score, kind = pat, KindPattern
		}
		if score > best.Score {
			best = Match{Header: header, FieldID: f.ID, FieldName: f.Name, Kind: kind, Score: score}
		}
	}
	return best, best.Score > 0
}

// substringScore is the length of whichever folded string contains the other.
func substringScore(header, name string) int {
	h, n := field.Fold(header), field.Fold(name)
	if h == "" || n == "" {
		return 0
	}
	switch {
	case strings.Contains(n, h):
		return len(h)
	case strings.Contains(h, n):
		return len(n)
	}
	return 0
}

// patternScore is the length of the longest keyword found in header among
// categories that both header and name belong to.
func patternScore(header, name string, table field.Table) int {
	best := 0
	for _, c := range table {
		hk := c.Match(header)
		if hk == "" || len(hk) <= best {
			continue
		}
		if c.Match(name) != "" {
			best = len(hk)
		}
	}
	return best
}
