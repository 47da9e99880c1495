package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceql/forceql/pkg/core"
)

func TestGoName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Account", "Account"},
		{"Id", "ID"},
		{"OwnerId", "OwnerId"},
		{"My_Custom_Field__c", "MyCustomField"},
		{"Parent__r", "Parent"},
		{"NumberOfEmployees", "NumberOfEmployees"},
		{"2FA_Code__c", "X2FACode"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GoName(tt.in), "GoName(%q)", tt.in)
	}
}

func TestGoType(t *testing.T) {
	assert.Equal(t, "string", goType(core.Field{Type: "string"}))
	assert.Equal(t, "string", goType(core.Field{Type: "reference", Nillable: true}))
	assert.Equal(t, "bool", goType(core.Field{Type: "boolean"}))
	assert.Equal(t, "float64", goType(core.Field{Type: "currency"}))
	assert.Equal(t, "*float64", goType(core.Field{Type: "currency", Nillable: true}))
	assert.Equal(t, "*time.Time", goType(core.Field{Type: "datetime", Nillable: true}))
	assert.Equal(t, "int64", goType(core.Field{Type: "int"}))
}

func TestGenerateModels(t *testing.T) {
	metas := []*core.ObjectMetadata{{
		Name: "Invoice__c", Label: "Invoice", KeyPrefix: "a00",
		Fields: []core.Field{
			{Name: "Id", Type: "id", Length: 18},
			{Name: "Name", Type: "string", Createable: true, Updateable: true},
			{Name: "Amount__c", Type: "currency", Nillable: true, Createable: true, Updateable: true},
			{Name: "Due_Date__c", Type: "date", Nillable: true, Createable: true, Updateable: true},
			{Name: "Account__c", Type: "reference", ReferenceTo: []string{"Account"}, Createable: true},
			{Name: "Status__c", Type: "picklist", PicklistValues: []string{"Draft", "Sent", "Paid"}, Createable: true, Updateable: true},
			{Name: "Computed_Total__c", Type: "currency"},
		},
	}}

	src, err := GenerateModels(metas, Options{Package: "crm", SkipReadOnly: true})
	require.NoError(t, err)
	got := string(src)

	assert.Contains(t, got, "// Code generated by forceql inspect; DO NOT EDIT.")
	assert.Contains(t, got, "package crm")
	assert.Contains(t, got, "import \"time\"")
	assert.Contains(t, got, "type Invoice struct {")
	assert.Contains(t, got, "ID string `soql:\"Id\"` // primary key")
	assert.Contains(t, got, "Amount *float64 `soql:\"Amount__c\"`")
	assert.Contains(t, got, "DueDate *time.Time `soql:\"Due_Date__c\"`")
	assert.Contains(t, got, "Account string `soql:\"Account__c\"` // references Account")
	assert.Contains(t, got, "Status string `soql:\"Status__c\"` // Draft, Sent, Paid")
	assert.NotContains(t, got, "ComputedTotal", "read-only formula fields are skipped")
}

func TestGenerateModelsDefaults(t *testing.T) {
	src, err := GenerateModels([]*core.ObjectMetadata{{Name: "Task", Label: "Task"}}, Options{})
	require.NoError(t, err)
	got := string(src)
	assert.Contains(t, got, "package models")
	assert.Contains(t, got, "type Task struct {")
	assert.NotContains(t, got, "import \"time\"")
}
