package mapping

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/leadsync/internal/field"
)

func schemaOf(fields ...field.Field) *field.Schema {
	s := field.NewSchema()
	for _, f := range fields {
		s.Put(f)
	}
	return s
}

func scenarioSchema() *field.Schema {
	return schemaOf(
		field.Field{ID: "f-company", Name: "Company", Type: field.TypeText},
		field.Field{ID: "f-email", Name: "Email", Type: field.TypeEmail},
		field.Field{ID: "f-phone", Name: "Phone", Type: field.TypePhone},
	)
}

func TestMap_Scenario(t *testing.T) {
	m := Map([]string{"Full Name", "Email", "Phone"}, scenarioSchema(), field.Columns)

	assert.Equal(t, map[string]string{"Email": "f-email", "Phone": "f-phone"}, m.Columns)
	assert.Equal(t, []string{"Full Name"}, m.Unmapped)

	email, ok := m.MatchFor("Email")
	require.True(t, ok)
	assert.Equal(t, KindExact, email.Kind)
}

func TestMap_ExactIsCaseInsensitive(t *testing.T) {
	m := Map([]string{"  EMAIL "}, scenarioSchema(), field.Columns)
	mt, ok := m.MatchFor("  EMAIL ")
	require.True(t, ok)
	assert.Equal(t, "f-email", mt.FieldID)
	assert.Equal(t, KindExact, mt.Kind)
}

func TestMap_Substring(t *testing.T) {
	schema := schemaOf(
		field.Field{ID: "f-value", Name: "Estimated Value", Type: field.TypeCurrency},
		field.Field{ID: "f-company", Name: "Company", Type: field.TypeText},
	)
	m := Map([]string{"estimated_value", "Company Name - Cleaned"}, schema, field.Columns)

	v, ok := m.MatchFor("estimated_value")
	require.True(t, ok)
	assert.Equal(t, "f-value", v.FieldID)
	assert.Equal(t, KindSubstring, v.Kind)
	assert.Equal(t, len("estimated value"), v.Score)

	c, ok := m.MatchFor("Company Name - Cleaned")
	require.True(t, ok)
	assert.Equal(t, "f-company", c.FieldID)
}

func TestMap_Pattern(t *testing.T) {
	schema := schemaOf(
		field.Field{ID: "f-mail", Name: "Contact E-mail", Type: field.TypeEmail},
		field.Field{ID: "f-phone", Name: "Mobile", Type: field.TypePhone},
	)
	m := Map([]string{"Email 1", "Contact Phone 1"}, schema, field.Columns)

	e, ok := m.MatchFor("Email 1")
	require.True(t, ok)
	assert.Equal(t, "f-mail", e.FieldID)
	assert.Equal(t, KindPattern, e.Kind)

	p, ok := m.MatchFor("Contact Phone 1")
	require.True(t, ok)
	assert.Equal(t, "f-phone", p.FieldID)
	assert.Equal(t, KindPattern, p.Kind)
}

func TestMap_LongerKeywordWins(t *testing.T) {
	// "Email Address" holds both "address" and "email address"; the longer
	// keyword belongs to the email category.
	schema := schemaOf(
		field.Field{ID: "f-addr", Name: "Street", Type: field.TypeText},
		field.Field{ID: "f-mail", Name: "Work Mail", Type: field.TypeEmail},
	)
	m := Map([]string{"Email Address"}, schema, field.Columns)
	mt, ok := m.MatchFor("Email Address")
	require.True(t, ok)
	assert.Equal(t, "f-mail", mt.FieldID)
}

func TestMap_TieBreaksByFieldName(t *testing.T) {
	schema := schemaOf(
		field.Field{ID: "f-z", Name: "Phone Work", Type: field.TypePhone},
		field.Field{ID: "f-a", Name: "Phone Home", Type: field.TypePhone},
	)
	for i := 0; i < 20; i++ {
		m := Map([]string{"Phone"}, schema, field.Columns)
		assert.Equal(t, "f-a", m.Columns["Phone"])
	}
}

func TestMap_EmptySchema(t *testing.T) {
	m := Map([]string{"Email", "Phone"}, field.NewSchema(), field.Columns)
	assert.Empty(t, m.Columns)
	assert.Equal(t, []string{"Email", "Phone"}, m.Unmapped)
}

func TestMap_DuplicateAndBlankHeaders(t *testing.T) {
	m := Map([]string{"Email", "Email", ""}, scenarioSchema(), field.Columns)
	assert.Len(t, m.Matches, 1)
	assert.Equal(t, []string{""}, m.Unmapped)
}

func TestMap_Deterministic(t *testing.T) {
	schema := schemaOf(
		field.Field{ID: "1", Name: "Company", Type: field.TypeText},
		field.Field{ID: "2", Name: "Company Size", Type: field.TypeText},
		field.Field{ID: "3", Name: "Email", Type: field.TypeEmail},
		field.Field{ID: "4", Name: "Secondary Email", Type: field.TypeEmail},
		field.Field{ID: "5", Name: "Phone", Type: field.TypePhone},
		field.Field{ID: "6", Name: "Website", Type: field.TypeURL},
		field.Field{ID: "7", Name: "Industry", Type: field.TypeSingleSelect, Options: []field.Option{{Label: "Tech", ID: "t"}}},
	)
	headers := []string{"name", "first_name", "company", "email", "Email 2", "phone", "LinkedIn URL", "Business Type", "notes"}

	first := Map(headers, schema, field.Columns)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again := Map(headers, schema, field.Columns)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("mapping changed between runs (-first +again):\n%s", diff)
		}
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		require.Equal(t, string(firstJSON), string(againJSON))
	}
}
