package schemacache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceql/forceql/pkg/core"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleMeta() []*core.ObjectMetadata {
	return []*core.ObjectMetadata{
		{
			Name: "Account", Label: "Account", KeyPrefix: "001",
			Queryable: true, Createable: true, Updateable: true, Deletable: true,
			Fields: []core.Field{
				{Name: "Id", Type: "id", Length: 18},
				{Name: "Name", Type: "string", Length: 255, Createable: true, Updateable: true},
				{
					Name: "OwnerId", Type: "reference",
					ReferenceTo: []string{"User"}, RelationshipName: "Owner",
				},
				{Name: "Industry", Type: "picklist", Nillable: true, PicklistValues: []string{"Banking", "Energy"}},
			},
		},
		{Name: "Task", Label: "Task", KeyPrefix: "00T", Queryable: true},
	}
}

func TestSaveAndGetObject(t *testing.T) {
	s := openStore(t)

	snap, err := s.SaveSnapshot("example.my.salesforce.com", "59.0", sampleMeta())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)

	meta, err := s.GetObject("example.my.salesforce.com", "Account")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "001", meta.KeyPrefix)
	require.Len(t, meta.Fields, 4)
	assert.Equal(t, "Id", meta.Fields[0].Name, "field order is preserved")
	assert.Equal(t, []string{"User"}, meta.Fields[2].ReferenceTo)
	assert.Equal(t, []string{"Banking", "Energy"}, meta.Fields[3].PicklistValues)
}

func TestGetObjectMissing(t *testing.T) {
	s := openStore(t)
	meta, err := s.GetObject("example.my.salesforce.com", "Account")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestListObjectsSorted(t *testing.T) {
	s := openStore(t)
	_, err := s.SaveSnapshot("host-a", "59.0", sampleMeta())
	require.NoError(t, err)

	objs, err := s.ListObjects("host-a")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "Account", objs[0].Name)
	assert.Equal(t, "Task", objs[1].Name)

	objs, err = s.ListObjects("other-host")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s := openStore(t)

	first, err := s.SaveSnapshot("host-a", "59.0", sampleMeta())
	require.NoError(t, err)

	second, err := s.SaveSnapshot("host-a", "60.0", sampleMeta()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	snap, err := s.CurrentSnapshot("host-a")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, second.ID, snap.ID)
	assert.Equal(t, "60.0", snap.APIVersion)

	objs, err := s.ListObjects("host-a")
	require.NoError(t, err)
	assert.Len(t, objs, 1, "old snapshot rows are cascade-deleted")

	meta, err := s.GetObject("host-a", "Task")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestCurrentSnapshotMissing(t *testing.T) {
	s := openStore(t)
	snap, err := s.CurrentSnapshot("nope")
	require.NoError(t, err)
	assert.Nil(t, snap)
}
