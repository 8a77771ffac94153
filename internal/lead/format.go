package lead

import (
	"path/filepath"
	"strings"
)

// Format names a known source layout.
type Format string

const (
	FormatArizona Format = "arizona"
	FormatCTO     Format = "cto"
	FormatHubspot Format = "hubspot"
	FormatGeneric Format = "generic"
)

// ParseFormat returns the format named s, or false.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatArizona, FormatCTO, FormatHubspot, FormatGeneric:
		return f, true
	}
	return "", false
}

// DetectFormat picks a layout from the file name.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "arizona"):
		return FormatArizona
	case strings.Contains(name, "george") || strings.Contains(name, "cto"):
		return FormatCTO
	case strings.Contains(name, "hubspot"):
		return FormatHubspot
	}
	return FormatGeneric
}

// Layout describes where a known source keeps each canonical attribute.
type Layout struct {
	Format   Format
	Source   string
	Required []string          // headers that must be present
	Columns  map[string]string // canonical column -> source header
	// Backups are consulted when the primary email or phone is absent.
	EmailBackup string
	PhoneBackup string
	Revenue     string // annual revenue header; empty for flat-valued sources
	// DefaultValue applies when revenue is absent or unusable.
	DefaultValue int
	// JoinName always builds name from first and last name.
	JoinName bool
}

// contactListColumns is shared by the two list-vendor exports.
var contactListColumns = map[string]string{
	ColName:      "Contact Full Name",
	ColFirstName: "First Name",
	ColLastName:  "Last Name",
	ColTitle:     "Title",
	ColCompany:   "Company Name - Cleaned",
	ColEmail:     "Email 1",
	ColPhone:     "Contact Phone 1",
}

var contactListRequired = []string{
	"Contact Full Name", "First Name", "Last Name", "Title",
	"Company Name - Cleaned", "Email 1", "Contact Phone 1",
}

// Layouts holds the known source layouts.
var Layouts = map[Format]Layout{
	FormatArizona: {
		Format:       FormatArizona,
		Source:       "Arizona Commercial Real Estate",
		Required:     contactListRequired,
		Columns:      contactListColumns,
		EmailBackup:  "Email 2",
		PhoneBackup:  "Company Phone 1",
		Revenue:      "Company Annual Revenue",
		DefaultValue: 5000,
	},
	FormatCTO: {
		Format:       FormatCTO,
		Source:       "George CTO Lead List",
		Required:     contactListRequired,
		Columns:      contactListColumns,
		EmailBackup:  "Email 2",
		PhoneBackup:  "Company Phone 1",
		Revenue:      "Company Annual Revenue",
		DefaultValue: 7500,
	},
	FormatHubspot: {
		Format:   FormatHubspot,
		Source:   "Hubspot Export",
		Required: []string{"First Name", "Last Name", "Email"},
		Columns: map[string]string{
			ColFirstName: "First Name",
			ColLastName:  "Last Name",
			ColTitle:     "Job Title",
			ColCompany:   "Associated Company (Primary)",
			ColEmail:     "Email",
			ColPhone:     "Phone Number",
			ColIndustry:  "Industry",
		},
		DefaultValue: 10000,
		JoinName:     true,
	},
}

// GenericSource is the source label of a generic file.
func GenericSource(fileName string) string {
	return "Generic CSV: " + filepath.Base(fileName)
}

// headerlessColumns is the positional layout of headerless exports.
var headerlessColumns = []string{
	"timestamp", "full_name", "first_name", "last_name", "title",
	"company", "website", "list", "linkedin", "email",
}
