package lead

import "github.com/hpungsan/leadsync/internal/field"

// ColOpportunityType is derived from the title when a lead is uploaded. It
// is not stored with the lead.
const ColOpportunityType = "opportunity_type"

// GeneralOpportunity is the opportunity type of titles no keyword matches.
const GeneralOpportunity = "General"

// opportunityTypes is checked in order; a "Tech Sales" title is Tech.
var opportunityTypes = field.Table{
	{Name: "Tech", Keywords: []string{"cto", "cio", "tech", "it", "developer", "engineer"}},
	{Name: "Executive", Keywords: []string{"ceo", "president", "owner", "founder"}},
	{Name: "Sales", Keywords: []string{"sales", "marketing", "business", "bd"}},
}

// OpportunityType classifies a job title as Tech, Executive, Sales or General.
func OpportunityType(title string) string {
	for _, c := range opportunityTypes {
		if c.Match(title) != "" {
			return c.Name
		}
	}
	return GeneralOpportunity
}
