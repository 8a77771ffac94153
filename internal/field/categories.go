package field

import "strings"

// Category is a named keyword set used to recognise what a column, field
// name or source label is about.
type Category struct {
	Name     string
	Keywords []string // folded form
}

// Match returns the longest keyword of c contained in s, or "" if none is.
// Keywords of three letters or fewer must stand as a whole word, so "cto"
// does not match "director".
func (c Category) Match(s string) string {
	folded := Fold(s)
	best := ""
	for _, kw := range c.Keywords {
		if len(kw) <= len(best) {
			continue
		}
		if len(kw) <= 3 {
			if containsWord(folded, kw) {
				best = kw
			}
		} else if strings.Contains(folded, kw) {
			best = kw
		}
	}
	return best
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// Table is an ordered list of categories. Order breaks ties.
type Table []Category

// Lookup returns the category with the given name.
func (t Table) Lookup(name string) (Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Classify returns the category whose matched keyword in s is longest.
// Earlier categories win ties.
func (t Table) Classify(s string) (string, bool) {
	bestName, bestLen := "", 0
	for _, c := range t {
		if kw := c.Match(s); len(kw) > bestLen {
			bestName, bestLen = c.Name, len(kw)
		}
	}
	return bestName, bestLen > 0
}

// Category names in Columns.
const (
	CatEmail     = "email"
	CatPhone     = "phone"
	CatCompany   = "company"
	CatFirstName = "first_name"
	CatLastName  = "last_name"
	CatName      = "name"
	CatTitle     = "title"
	CatWebsite   = "website"
	CatAddress   = "address"
	CatNotes     = "notes"
	CatSource    = "source"
	CatIndustry  = "industry"
	CatStatus    = "status"
	CatValue     = "value"
)

// Columns is the shared keyword table for column headers and field names.
// The column mapper, the generic lead layout and industry detection all
// read this one table.
var Columns = Table{
	{CatEmail, []string{"email", "email address", "e-mail", "mail", "contact email"}},
	{CatPhone, []string{"phone", "phone number", "telephone", "mobile", "cell"}},
	{CatCompany, []string{"company", "company name", "organization", "business", "firm"}},
	{CatFirstName, []string{"first name", "firstname", "fname"}},
	{CatLastName, []string{"last name", "lastname", "lname", "surname"}},
	{CatName, []string{"name", "full name", "contact name", "person", "lead name"}},
	{CatTitle, []string{"title", "job title", "position", "role"}},
	{CatWebsite, []string{"website", "url", "web", "site", "linkedin"}},
	{CatAddress, []string{"address", "location", "street", "city"}},
	{CatNotes, []string{"notes", "comments", "description", "remarks", "lead notes"}},
	{CatSource, []string{"source", "import", "origin", "channel"}},
	{CatIndustry, []string{"industry", "sector", "business type", "category"}},
	{CatStatus, []string{"status", "stage", "opportunity stage"}},
	{CatValue, []string{"value", "estimated value", "deal value", "revenue"}},
}

// GeneralBusiness is the industry used when no keyword matches.
const GeneralBusiness = "General Business"

// Industries maps industry labels to the keywords that imply them in a
// source label, file name or company name.
var Industries = Table{
	{"Food & Beverage", []string{"restaurant", "food", "beverage", "dining", "cafe"}},
	{"Real Estate", []string{"real estate", "commercial", "property", "realty"}},
	{"Technology", []string{"tech", "software", "cto", "developer"}},
	{"Non-Profit", []string{"non profit", "non-profit", "nonprofit", "charity", "foundation"}},
	{"Healthcare/Dental", []string{"dental", "dentist", "medical", "healthcare", "health"}},
	{"Home Services", []string{"landscaping", "pool", "construction", "home services"}},
	{"Consulting/HR", []string{"diversity", "equity", "inclusion"}},
	{"Human Resources", []string{"chief people officer", "human resources"}},
	{"Entrepreneurship", []string{"business owner", "founder", "entrepreneur"}},
	{"Marketing/Design", []string{"web design", "marketing", "design", "advertising", "creative"}},
	{"Social Impact", []string{"social impact"}},
	{"Social Services", []string{"individual family services", "social services"}},
}

// InferIndustry returns the first industry in t with a keyword present in
// any of texts, or GeneralBusiness.
func InferIndustry(t Table, texts ...string) string {
	for _, c := range t {
		for _, text := range texts {
			if c.Match(text) != "" {
				return c.Name
			}
		}
	}
	return GeneralBusiness
}
