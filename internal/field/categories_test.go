package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_Match(t *testing.T) {
	email, ok := Columns.Lookup(CatEmail)
	assert.True(t, ok)

	assert.Equal(t, "email address", email.Match("Email_Address"))
	assert.Equal(t, "email", email.Match("Work Email"))
	assert.Equal(t, "", email.Match("Phone"))
}

func TestTable_Classify(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Email 1", CatEmail, true},
		{"Contact Full Name", CatName, true},
		{"First Name", CatFirstName, true},
		{"Last Name", CatLastName, true},
		{"Company Name - Cleaned", CatCompany, true},
		{"Job Title", CatTitle, true},
		{"Mobile", CatPhone, true},
		{"Business Type", CatIndustry, true},
		{"Email Address", CatEmail, true},
		{"Jane Doe", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := Columns.Classify(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferIndustry(t *testing.T) {
	tests := []struct {
		texts []string
		want  string
	}{
		{[]string{"Arizona Commercial Real Estate"}, "Real Estate"},
		{[]string{"George CTO Lead List"}, "Technology"},
		{[]string{"Generic CSV: phoenix_restaurants.csv"}, "Food & Beverage"},
		{[]string{"Generic CSV: az_dentists.csv"}, "Healthcare/Dental"},
		{[]string{"Generic CSV: non_profit_directors.csv"}, "Non-Profit"},
		{[]string{"Generic CSV: sales_directors.csv"}, GeneralBusiness},
		{[]string{"Generic CSV: chief_people_officer.csv"}, "Human Resources"},
		{[]string{"Generic CSV: list.csv", "Acme Landscaping"}, "Home Services"},
		{[]string{"Hubspot Export"}, GeneralBusiness},
		{nil, GeneralBusiness},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferIndustry(Industries, tt.texts...), "texts %v", tt.texts)
	}
}
