package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionserver/internal/region"
)

func TestMarshalUnmarshal_RoundTripsDescriptor(t *testing.T) {
	d := region.Descriptor{
		Table: "users", StartKey: []byte("a"), EndKey: []byte("m"),
		IsMetaTable: true, Families: []string{"cf1", "cf2"},
	}

	data, err := Marshal(d)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, d.Table, got.Table)
	assert.Equal(t, d.StartKey, got.StartKey)
	assert.Equal(t, d.EndKey, got.EndKey)
	assert.True(t, got.IsMetaTable)
	assert.Equal(t, d.Families, got.Families)
}

func TestCatalog_MarkSplitWritesOfflineAndBothChildren(t *testing.T) {
	c := New()
	childA := region.Descriptor{Table: "users", StartKey: nil, EndKey: []byte("m")}
	childB := region.Descriptor{Table: "users", StartKey: []byte("m"), EndKey: nil}

	require.NoError(t, c.MarkSplit(Meta, "users,,1", childA, childB))

	row, ok := c.Row(Meta, "users,,1")
	require.True(t, ok)
	assert.True(t, row.Offline)
	assert.True(t, row.Split)
	assert.NotEmpty(t, row.SplitA)
	assert.NotEmpty(t, row.SplitB)
}

func TestCatalog_InsertChildAppendsToExistingRow(t *testing.T) {
	c := New()
	childA := region.Descriptor{Table: "users", StartKey: nil, EndKey: []byte("m")}

	require.NoError(t, c.InsertChild(Meta, childA))
	row, ok := c.Row(Meta, "users,")
	require.True(t, ok)
	require.Len(t, row.Children, 1)
	assert.Equal(t, childA.EndKey, row.Children[0].EndKey)
}

func TestCatalog_RowUnknownReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.Row(Root, "nope")
	assert.False(t, ok)
}

func TestCatalog_RootAndMetaTargetsAreIndependent(t *testing.T) {
	c := New()
	d := region.Descriptor{Table: "t", StartKey: []byte("a")}
	require.NoError(t, c.InsertChild(Meta, d))

	_, ok := c.Row(Root, "t,61")
	assert.False(t, ok)
	_, ok = c.Row(Meta, "t,61")
	assert.True(t, ok)
}
