package salesforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/soql"
)

func TestFlattenRecord(t *testing.T) {
	rec := map[string]any{
		"attributes": map[string]any{"type": "Contact", "url": "/services/..."},
		"Id":         "003xx1",
		"LastName":   "Doe",
		"Account": map[string]any{
			"attributes": map[string]any{"type": "Account"},
			"Name":       "Acme",
			"Owner": map[string]any{
				"attributes": map[string]any{"type": "User"},
				"Username":   "it@example.com",
			},
		},
		"Metadata": map[string]any{"raw": true}, // plain JSON object, not a nested record
	}

	flat := flattenRecord(rec)
	assert.Equal(t, core.Record{
		"Id":                     "003xx1",
		"LastName":               "Doe",
		"Account.Name":           "Acme",
		"Account.Owner.Username": "it@example.com",
		"Metadata":               map[string]any{"raw": true},
	}, flat)
}

func TestBuildResultWildcard(t *testing.T) {
	q := &soql.Query{Wildcard: true}
	res, err := buildResult(q, []map[string]any{
		{"attributes": map[string]any{"type": "Account"}, "Id": "a1", "Name": "Acme", "Industry": nil},
		{"attributes": map[string]any{"type": "Account"}, "Id": "a2", "Name": "Beta", "Phone": "555"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Id", "Industry", "Name", "Phone"}, res.Columns,
		"Id first, remaining columns sorted")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []any{"a1", nil, "Acme", nil}, res.Rows[0])
	assert.Equal(t, []any{"a2", nil, "Beta", "555"}, res.Rows[1])
}

func TestBuildResultMissingParent(t *testing.T) {
	q := &soql.Query{Columns: []soql.Column{
		{Name: "LastName", Path: "LastName"},
		{Name: "Account.Name", Path: "Account.Name"},
	}}
	res, err := buildResult(q, []map[string]any{
		{"LastName": "Doe", "Account": nil}, // left join with no parent
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Doe", nil}, res.Rows[0])
}
