// Package field describes the custom fields of a remote board.
//
// A Schema is built at runtime from sampled board records and is never
// persisted; the board itself is authoritative. Downstream code looks fields
// up through the Schema instead of compiled-in identifiers.
package field

import (
	"sort"
	"strings"
)

// Type is the normalized type tag of a board field.
type Type string

const (
	TypeText         Type = "text"
	TypeEmail        Type = "email"
	TypePhone        Type = "phone"
	TypeURL          Type = "url"
	TypeCurrency     Type = "currency"
	TypeSingleSelect Type = "single-select"
	TypeOther        Type = "other"
)

// ParseType maps a raw board type tag to a Type.
func ParseType(raw string) Type {
	switch Normalize(raw) {
	case "email":
		return TypeEmail
	case "phone":
		return TypePhone
	case "url":
		return TypeURL
	case "currency":
		return TypeCurrency
	case "drop_down", "dropdown", "single-select", "single_select":
		return TypeSingleSelect
	case "text", "short_text", "short-text":
		return TypeText
	default:
		return TypeOther
	}
}

// Option is one selectable value of a single-select field.
type Option struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Field describes one custom field on a board.
type Field struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     Type     `json:"type"`
	Required bool     `json:"required"`
	Options  []Option `json:"options,omitempty"` // single-select only, in board order
}

// OptionID returns the identifier of the option whose label equals label,
// ignoring case.
func (f *Field) OptionID(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, o := range f.Options {
		if strings.EqualFold(o.Label, label) {
			return o.ID, true
		}
	}
	return "", false
}

// OptionLabels returns the option labels in board order.
func (f *Field) OptionLabels() []string {
	labels := make([]string, len(f.Options))
	for i, o := range f.Options {
		labels[i] = o.Label
	}
	return labels
}

// Schema maps field names to descriptors for one board.
type Schema struct {
	byName map[string]*Field
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]*Field)}
}

// Put adds f, replacing any field with the same name.
// Options are kept only for single-select fields. A single-select field
// without options keeps its type and accepts no value.
func (s *Schema) Put(f Field) {
	if f.Type != TypeSingleSelect {
		f.Options = nil
	}
	stored := f
	s.byName[f.Name] = &stored
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byName)
}

// FieldByName returns the field with the given name. An exact match wins
// over a case-insensitive one.
func (s *Schema) FieldByName(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	if f, ok := s.byName[name]; ok {
		return f, true
	}
	for _, f := range s.Fields() {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return nil, false
}

// FieldByID returns the field with the given identifier.
func (s *Schema) FieldByID(id string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.byName {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Names returns field names in lexicographic order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns the fields ordered by name.
func (s *Schema) Fields() []*Field {
	names := s.Names()
	fields := make([]*Field, len(names))
	for i, name := range names {
		fields[i] = s.byName[name]
	}
	return fields
}

// FirstOfType returns the first field (by name) with type t.
func (s *Schema) FirstOfType(t Type) (*Field, bool) {
	for _, f := range s.Fields() {
		if f.Type == t {
			return f, true
		}
	}
	return nil, false
}
