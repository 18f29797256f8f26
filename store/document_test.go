package store

import (
	"testing"

	"github.com/ValentinKolb/vdb/revid"
	"github.com/stretchr/testify/require"
)

func TestInsertRootRequiresNoCurrentRevision(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	_, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	_, err = doc.Insert(mustRevID(t, "1-bb"), []byte("v1b"), false, false, nil, false, nil)
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeConflict))

	_, err = doc.Insert(mustRevID(t, "1-bb"), []byte("v1b"), false, false, nil, true, nil)
	require.NoError(t, err)
	require.True(t, doc.Flags()&DocConflicted != 0)
}

func TestInsertIdempotentOnSameRevID(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	r1, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	again, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)
	require.Same(t, r1, again)
}

func TestInsertRejectsBodyMismatchOnDuplicateRevID(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	_, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	_, err = doc.Insert(mustRevID(t, "1-aa"), []byte("different"), false, false, nil, false, nil)
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeConflict))
}

func TestInsertRejectsNonLeafParentWithoutAllowConflict(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)
	_, err = doc.Insert(mustRevID(t, "2-bb"), []byte("v2"), false, false, root, false, nil)
	require.NoError(t, err)

	_, err = doc.Insert(mustRevID(t, "2-cc"), []byte("v2c"), false, false, root, false, nil)
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeConflict))

	_, err = doc.Insert(mustRevID(t, "2-cc"), []byte("v2c"), false, false, root, true, nil)
	require.NoError(t, err)
}

func TestInsertRejectsWrongGeneration(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	_, err = doc.Insert(mustRevID(t, "3-bb"), []byte("v3"), false, false, root, false, nil)
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeBadRequest))
}

func TestWinnerSelectionPrefersNonDeletedThenGenerationThenDigest(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	del, err := doc.Insert(mustRevID(t, "2-ff"), nil, true, false, root, false, nil)
	require.NoError(t, err)
	require.True(t, doc.RevID().Equal(del.RevID()), "del is the only leaf so far")

	live, err := doc.Insert(mustRevID(t, "2-aa"), []byte("v2"), false, false, root, true, nil)
	require.NoError(t, err)
	require.True(t, doc.RevID().Equal(live.RevID()), "non-deleted leaf must win over a deleted one")

	higher, err := doc.Insert(mustRevID(t, "3-00"), []byte("v3"), false, false, live, false, nil)
	require.NoError(t, err)
	require.True(t, doc.RevID().Equal(higher.RevID()), "higher generation must win")

	larger, err := doc.Insert(mustRevID(t, "3-ff"), []byte("v3f"), false, false, live, true, nil)
	require.NoError(t, err)
	require.True(t, doc.RevID().Equal(larger.RevID()), "larger digest must win at equal generation")
}

func TestInsertHistoryGraftsChainAboveKnownAncestor(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)

	history := revIDList(t, "3-cc", "2-bb", "1-aa")
	pos, err := doc.InsertHistory(history, []byte("v3"), false, false)
	require.NoError(t, err)
	require.Equal(t, 2, pos, "ancestor 1-aa sits at index 2 in the newest-to-oldest history")
	require.True(t, doc.RevID().Equal(history[0]))

	mid, ok := doc.Get(history[1])
	require.True(t, ok)
	require.False(t, mid.IsLeaf())
	require.True(t, mid.Parent().RevID().Equal(root.RevID()))
}

func TestInsertHistoryRejectsNonMonotoneGenerations(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	history := revIDList(t, "2-bb", "2-cc")
	_, err := doc.InsertHistory(history, []byte("v"), false, false)
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeBadRequest))
}

func TestInsertHistoryAsFreshRootChainWhenNoAncestorKnown(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	history := revIDList(t, "3-cc", "2-bb", "1-aa")
	pos, err := doc.InsertHistory(history, []byte("v3"), false, false)
	require.NoError(t, err)
	require.Equal(t, len(history), pos)
	require.True(t, doc.RevID().Equal(history[0]))
	require.Equal(t, 3, len(doc.revisions))
}

func TestPruneKeepsLeavesAndReparentsSurvivors(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	r1, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)
	r2, err := doc.Insert(mustRevID(t, "2-bb"), []byte("v2"), false, false, r1, false, nil)
	require.NoError(t, err)
	r3, err := doc.Insert(mustRevID(t, "3-cc"), []byte("v3"), false, false, r2, false, nil)
	require.NoError(t, err)
	leaf, err := doc.Insert(mustRevID(t, "4-dd"), []byte("v4"), false, false, r3, false, nil)
	require.NoError(t, err)

	doc.Prune(2)

	require.Equal(t, 2, len(doc.revisions), "only the leaf and its immediate parent should survive maxDepth=2")
	_, hasLeaf := doc.Get(leaf.RevID())
	require.True(t, hasLeaf)
	_, hasRoot := doc.Get(r1.RevID())
	require.False(t, hasRoot)

	survivingParent, ok := doc.Get(r3.RevID())
	require.True(t, ok)
	require.Nil(t, survivingParent.Parent(), "surviving parent should now be a root since its ancestors were pruned")
}

func TestPruneNeverDropsAllRevisionsOfSingleLeafDoc(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	_, err := doc.Insert(mustRevID(t, "1-aa"), []byte("v1"), false, false, nil, false, nil)
	require.NoError(t, err)
	doc.Prune(1)
	require.Equal(t, 1, len(doc.revisions))
}

func TestSaveAndDecodeRoundTrip(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("small body"), false, false, nil, false, nil)
	require.NoError(t, err)
	winner, err := doc.Insert(mustRevID(t, "2-bb"), []byte("winner body"), false, false, root, false, nil)
	require.NoError(t, err)

	fw := newFakeStoreWriter()
	fo := newFakeStoreWriter()
	err = doc.Save(fw, fo)
	require.NoError(t, err)
	require.False(t, doc.IsDirty())
	require.False(t, root.IsNew())
	require.False(t, winner.IsNew())
	require.Greater(t, winner.Sequence(), uint64(0))
	require.Greater(t, root.Sequence(), uint64(0))
	require.NotEqual(t, root.Sequence(), winner.Sequence())

	meta, body := fw.get(doc.docID)
	require.NotNil(t, meta)

	decoded, err := decodeDocument(DefaultStore, doc.docID, meta, body)
	require.NoError(t, err)
	require.True(t, decoded.RevID().Equal(doc.RevID()))
	require.Equal(t, 2, len(decoded.revisions))

	decodedRoot, ok := decoded.Get(root.RevID())
	require.True(t, ok)
	loadedBody, err := decoded.ReadBody(decodedRoot, fakeStoreReader{fo})
	require.NoError(t, err)
	require.Equal(t, []byte("small body"), loadedBody)
}

func TestReadBodyReturnsGoneWhenOverflowMissing(t *testing.T) {
	doc := newDocument(DefaultStore, []byte("doc1"))
	root, err := doc.Insert(mustRevID(t, "1-aa"), []byte("body"), false, false, nil, false, nil)
	require.NoError(t, err)

	fw := newFakeStoreWriter()
	empty := newFakeStoreWriter()
	require.NoError(t, doc.Save(fw, empty))

	root.body = nil // force a reload from overflow, which was never actually written
	_, err = doc.ReadBody(root, fakeStoreReader{empty})
	require.Error(t, err)
	require.True(t, IsCode(err, DomainHTTP, CodeGone))
}

// revIDList turns a list of ASCII revIDs into a []revid.RevID for
// InsertHistory calls.
func revIDList(t *testing.T, ss ...string) []revid.RevID {
	t.Helper()
	out := make([]revid.RevID, len(ss))
	for i, s := range ss {
		out[i] = mustRevID(t, s)
	}
	return out
}
