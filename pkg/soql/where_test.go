package soql_test

import (
	"testing"

	"github.com/forceql/forceql/pkg/soql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateWhere(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		args []any
		want string // expected WHERE fragment, "" for none
	}{
		{
			name: "comparison",
			sql:  "SELECT Id FROM Account WHERE AnnualRevenue >= 1000000",
			want: "Account.AnnualRevenue >= 1000000",
		},
		{
			name: "reversed comparison normalizes",
			sql:  "SELECT Id FROM Account WHERE 1000000 < AnnualRevenue",
			want: "Account.AnnualRevenue > 1000000",
		},
		{
			name: "and grouping",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' AND Industry = 'b' AND IsDeleted = false",
			want: "(Account.Name = 'a' AND Account.Industry = 'b' AND Account.IsDeleted = false)",
		},
		{
			name: "mixed connectors keep precedence",
			sql:  "SELECT Id FROM Account WHERE (Name = 'a' OR Name = 'b') AND Industry = 'c'",
			want: "((Account.Name = 'a' OR Account.Name = 'b') AND Account.Industry = 'c')",
		},
		{
			name: "negation is parenthesized",
			sql:  "SELECT Id FROM Account WHERE NOT Name = 'a'",
			want: "(NOT (Account.Name = 'a'))",
		},
		{
			name: "is null becomes null comparison",
			sql:  "SELECT Id FROM Account WHERE ParentId IS NULL",
			want: "Account.ParentId = null",
		},
		{
			name: "is not null",
			sql:  "SELECT Id FROM Account WHERE ParentId IS NOT NULL",
			want: "Account.ParentId != null",
		},
		{
			name: "in list",
			sql:  "SELECT Id FROM Account WHERE Industry IN ('Banking', 'Energy')",
			want: "Account.Industry IN ('Banking', 'Energy')",
		},
		{
			name: "in with slice argument expands",
			sql:  "SELECT Id FROM Account WHERE Industry IN (?)",
			args: []any{[]string{"Banking", "Energy"}},
			want: "Account.Industry IN ('Banking', 'Energy')",
		},
		{
			name: "not in",
			sql:  "SELECT Id FROM Account WHERE Industry NOT IN ('Banking')",
			want: "Account.Industry NOT IN ('Banking')",
		},
		{
			name: "between expands to range",
			sql:  "SELECT Id FROM Account WHERE NumberOfEmployees BETWEEN 10 AND 20",
			want: "(Account.NumberOfEmployees >= 10 AND Account.NumberOfEmployees <= 20)",
		},
		{
			name: "not between",
			sql:  "SELECT Id FROM Account WHERE NumberOfEmployees NOT BETWEEN 10 AND 20",
			want: "(Account.NumberOfEmployees < 10 OR Account.NumberOfEmployees > 20)",
		},
		{
			name: "like",
			sql:  "SELECT Id FROM Account WHERE Name LIKE 'Acme%'",
			want: "Account.Name LIKE 'Acme%'",
		},
		{
			name: "not like wraps in negation",
			sql:  "SELECT Id FROM Account WHERE Name NOT LIKE 'Acme%'",
			want: "(NOT (Account.Name LIKE 'Acme%'))",
		},
		{
			name: "bare boolean field",
			sql:  "SELECT Id FROM Account WHERE IsDeleted",
			want: "Account.IsDeleted = true",
		},
		{
			name: "field to field comparison",
			sql:  "SELECT Id FROM Account WHERE ShippingCity = BillingCity",
			want: "Account.ShippingCity = Account.BillingCity",
		},
		{
			name: "tautology drops out of AND",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' AND true",
			want: "Account.Name = 'a'",
		},
		{
			name: "full OR branch drops the clause",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' OR true",
			want: "",
		},
		{
			name: "empty OR branch drops out",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' OR false",
			want: "Account.Name = 'a'",
		},
		{
			name: "negated empty branch is full",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' OR NOT false",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := soql.Translate(tt.sql, tt.args, soql.Options{})
			require.NoError(t, err)
			require.False(t, q.Empty)
			if tt.want == "" {
				assert.Equal(t, "SELECT Account.Id FROM Account", q.SOQL)
				return
			}
			assert.Equal(t, "SELECT Account.Id FROM Account WHERE "+tt.want, q.SOQL)
		})
	}
}

func TestTranslateWhereEmptySet(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		args []any
	}{
		{
			name: "empty IN list",
			sql:  "SELECT Id FROM Account WHERE Id IN (?)",
			args: []any{[]string{}},
		},
		{
			name: "false literal",
			sql:  "SELECT Id FROM Account WHERE false",
		},
		{
			name: "empty branch in AND",
			sql:  "SELECT Id FROM Account WHERE Name = 'a' AND false",
		},
		{
			name: "negated tautology",
			sql:  "SELECT Id FROM Account WHERE NOT true",
		},
		{
			name: "zero limit",
			sql:  "SELECT Id FROM Account LIMIT 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := soql.Translate(tt.sql, tt.args, soql.Options{})
			require.NoError(t, err)
			assert.True(t, q.Empty)
		})
	}
}

func TestTranslateWhereNotInEmptyList(t *testing.T) {
	q, err := soql.Translate("SELECT Id FROM Account WHERE Id NOT IN (?)", []any{[]string{}}, soql.Options{})
	require.NoError(t, err)
	assert.False(t, q.Empty)
	assert.Equal(t, "SELECT Account.Id FROM Account", q.SOQL)
}
