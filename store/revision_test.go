package store

import (
	"testing"

	"github.com/ValentinKolb/vdb/revid"
	"github.com/stretchr/testify/require"
)

func mustRevID(t *testing.T, s string) revid.RevID {
	t.Helper()
	id, err := revid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestRevisionAccessors(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	r1, err := doc.Insert(mustRevID(t, "1-aa"), []byte("hello"), false, false, nil, false, nil)
	require.NoError(t, err)
	require.True(t, r1.IsLeaf())
	require.False(t, r1.IsDeleted())
	require.True(t, r1.IsNew())
	require.False(t, r1.HasAttachments())
	require.Nil(t, r1.Parent())
	require.Equal(t, []byte("hello"), r1.InlineBody())

	r2, err := doc.Insert(mustRevID(t, "2-bb"), []byte("world"), false, true, r1, false, nil)
	require.NoError(t, err)
	require.False(t, r1.IsLeaf(), "r1 should no longer be a leaf once r2 is its child")
	require.True(t, r2.IsLeaf())
	require.True(t, r2.HasAttachments())
	require.NotNil(t, r2.Parent())
	require.True(t, r2.Parent().RevID().Equal(r1.RevID()))
}

func TestSelectNextLeafSkipsDeletedUnlessIncluded(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)
	_, err = doc.Insert(mustRevID(t, "2-bb"), []byte("v2"), false, false, root, false, nil)
	require.NoError(t, err)
	_, err = doc.Insert(mustRevID(t, "2-cc"), nil, true, false, root, true, nil)
	require.NoError(t, err)

	first := doc.First()
	require.NotNil(t, first)

	leaf := first.SelectNextLeaf(false)
	require.NotNil(t, leaf)
	require.False(t, leaf.IsDeleted())

	allLeaves := 0
	for r := first; r != nil; r = r.Next() {
		if r.IsLeaf() {
			allLeaves++
		}
	}
	require.Equal(t, 2, allLeaves)
}

// TestNextIsTruePreOrderAcrossBranches builds root(aa) -> bb, root -> cc
// (so bb and cc both branch off aa), then extends bb with dd. Arena-append
// order is [aa,bb,cc,dd], but pre-order visits dd before cc since dd is
// bb's child and bb was visited before cc.
func TestNextIsTruePreOrderAcrossBranches(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	aa, err := doc.Insert(mustRevID(t, "1-aa"), []byte("aa"), false, false, nil, false, nil)
	require.NoError(t, err)
	bb, err := doc.Insert(mustRevID(t, "2-bb"), []byte("bb"), false, false, aa, false, nil)
	require.NoError(t, err)
	cc, err := doc.Insert(mustRevID(t, "2-cc"), []byte("cc"), false, false, aa, true, nil)
	require.NoError(t, err)
	dd, err := doc.Insert(mustRevID(t, "3-dd"), []byte("dd"), false, false, bb, true, nil)
	require.NoError(t, err)

	var order []string
	for r := doc.First(); r != nil; r = r.Next() {
		order = append(order, r.RevID().String())
	}
	require.Equal(t, []string{
		aa.RevID().String(),
		bb.RevID().String(),
		dd.RevID().String(),
		cc.RevID().String(),
	}, order)
}
