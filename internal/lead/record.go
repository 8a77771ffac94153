// Package lead normalizes source CSV rows into canonical lead records.
package lead

import (
	"sort"
	"strconv"
)

// Canonical column names of the combined lead table.
const (
	ColName           = "name"
	ColFirstName      = "first_name"
	ColLastName       = "last_name"
	ColTitle          = "title"
	ColCompany        = "company"
	ColEmail          = "email"
	ColPhone          = "phone"
	ColSource         = "source"
	ColIndustry       = "industry"
	ColEstimatedValue = "estimated_value"
)

// Columns lists the canonical columns in table order.
var Columns = []string{
	ColName, ColFirstName, ColLastName, ColTitle, ColCompany,
	ColEmail, ColPhone, ColSource, ColIndustry, ColEstimatedValue,
}

// Record is one prospective contact after normalization. Empty strings
// mean absent.
type Record struct {
	Name           string            `json:"name"`
	FirstName      string            `json:"first_name,omitempty"`
	LastName       string            `json:"last_name,omitempty"`
	Title          string            `json:"title,omitempty"`
	Company        string            `json:"company,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Source         string            `json:"source"`
	Industry       string            `json:"industry,omitempty"`
	EstimatedValue int               `json:"estimated_value"`
	Extra          map[string]string `json:"extra,omitempty"` // pass-through columns by header
}

// Get returns the value of a canonical or pass-through column.
func (r *Record) Get(col string) string {
	switch col {
	case ColName:
		return r.Name
	case ColFirstName:
		return r.FirstName
	case ColLastName:
		return r.LastName
	case ColTitle:
		return r.Title
	case ColCompany:
		return r.Company
	case ColEmail:
		return r.Email
	case ColPhone:
		return r.Phone
	case ColSource:
		return r.Source
	case ColIndustry:
		return r.Industry
	case ColEstimatedValue:
		if r.EstimatedValue == 0 {
			return ""
		}
		return strconv.Itoa(r.EstimatedValue)
	}
	return r.Extra[col]
}

// Headers returns the canonical columns followed by every pass-through
// column present in records, sorted.
func Headers(records []Record) []string {
	canonical := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		canonical[c] = true
	}
	extra := make(map[string]bool)
	for _, r := range records {
		for k := range r.Extra {
			if !canonical[k] {
				extra[k] = true
			}
		}
	}
	names := make([]string, 0, len(extra))
	for k := range extra {
		names = append(names, k)
	}
	sort.Strings(names)
	return append(append([]string(nil), Columns...), names...)
}

// Rows renders records as table rows in headers order.
func Rows(records []Record, headers []string) [][]string {
	rows := make([][]string, len(records))
	for i := range records {
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = records[i].Get(h)
		}
		rows[i] = row
	}
	return rows
}
