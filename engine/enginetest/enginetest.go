package enginetest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/vdb/engine"
)

// Factory creates a fresh, empty Engine for one subtest. dir is a unique
// scratch directory the Engine may use for on-disk state; in-memory
// implementations ignore it.
type Factory func(dir string) engine.Engine

// RunEngineTests runs the conformance suite against an Engine implementation.
func RunEngineTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("GetSet", func(t *testing.T) { testGetSet(t, factory) })
		t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
		t.Run("SequenceOrdering", func(t *testing.T) { testSequenceOrdering(t, factory) })
		t.Run("MultipleStores", func(t *testing.T) { testMultipleStores(t, factory) })
		t.Run("EnumerateRange", func(t *testing.T) { testEnumerateRange(t, factory) })
		t.Run("EnumerateBySequence", func(t *testing.T) { testEnumerateBySequence(t, factory) })
		t.Run("TransactionAbort", func(t *testing.T) { testTransactionAbort(t, factory) })
		t.Run("NextSequence", func(t *testing.T) { testNextSequence(t, factory) })
	})
}

func newEngine(t *testing.T, factory Factory) engine.Engine {
	t.Helper()
	e := factory(t.TempDir())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func set(t *testing.T, e engine.Engine, store string, key, meta, body []byte) uint64 {
	t.Helper()
	tx, err := e.BeginTransaction()
	require.NoError(t, err)
	seq, err := tx.Writer(store).Set(key, meta, body)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return seq
}

func testGetSet(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	_, err := e.Get("docs", []byte("missing"))
	require.ErrorIs(t, err, engine.ErrNotFound)

	seq := set(t, e, "docs", []byte("a"), []byte("meta-a"), []byte("body-a"))
	require.Equal(t, uint64(1), seq)

	rec, err := e.Get("docs", []byte("a"))
	require.NoError(t, err)
	require.True(t, rec.Exists)
	require.Equal(t, []byte("meta-a"), rec.Meta)
	require.Equal(t, []byte("body-a"), rec.Body)
	require.Equal(t, uint64(1), rec.Sequence)

	seq2 := set(t, e, "docs", []byte("a"), []byte("meta-a2"), []byte("body-a2"))
	require.Equal(t, uint64(2), seq2)

	rec, err = e.Get("docs", []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("meta-a2"), rec.Meta)

	// the overwritten sequence must no longer resolve
	_, err = e.GetBySequence("docs", seq)
	require.ErrorIs(t, err, engine.ErrNotFound)

	rec, err = e.GetBySequence("docs", seq2)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), rec.Key)
}

func testDelete(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	set(t, e, "docs", []byte("a"), []byte("m"), []byte("b"))

	tx, err := e.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, tx.Writer("docs").Delete([]byte("a")))
	require.NoError(t, tx.Commit())

	_, err = e.Get("docs", []byte("a"))
	require.ErrorIs(t, err, engine.ErrNotFound)

	// deleting an absent key is not an error
	tx, err = e.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, tx.Writer("docs").Delete([]byte("never-existed")))
	require.NoError(t, tx.Commit())
}

func testSequenceOrdering(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	for i := 0; i < 10; i++ {
		key := []byte(fmt.Sprintf("k%02d", i))
		seq := set(t, e, "docs", key, nil, nil)
		require.Equal(t, uint64(i+1), seq)
	}
	require.Equal(t, uint64(10), e.LastSequence("docs"))
	require.Equal(t, uint64(0), e.LastSequence("unused-store"))
}

func testMultipleStores(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	set(t, e, "docs", []byte("a"), nil, nil)
	set(t, e, "local", []byte("a"), []byte("local-meta"), nil)

	docRec, err := e.Get("docs", []byte("a"))
	require.NoError(t, err)
	localRec, err := e.Get("local", []byte("a"))
	require.NoError(t, err)

	require.Equal(t, uint64(1), docRec.Sequence)
	require.Equal(t, uint64(1), localRec.Sequence)
	require.Equal(t, []byte("local-meta"), localRec.Meta)

	_, err = e.Get("docs", []byte("a-only-in-local"))
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func testEnumerateRange(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		set(t, e, "docs", []byte(k), []byte(k+"-meta"), nil)
	}

	it, err := e.Enumerate("docs", []byte("b"), []byte("d"), engine.IterOptions{})
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Record().Key))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"b", "c"}, got)

	it2, err := e.Enumerate("docs", []byte("b"), []byte("d"), engine.IterOptions{InclusiveEnd: true})
	require.NoError(t, err)
	defer it2.Close()
	got = nil
	for it2.Next() {
		got = append(got, string(it2.Record().Key))
	}
	require.Equal(t, []string{"b", "c", "d"}, got)

	it3, err := e.Enumerate("docs", nil, nil, engine.IterOptions{Descending: true})
	require.NoError(t, err)
	defer it3.Close()
	got = nil
	for it3.Next() {
		got = append(got, string(it3.Record().Key))
	}
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, got)

	it4, err := e.Enumerate("docs", nil, nil, engine.IterOptions{Skip: 3})
	require.NoError(t, err)
	defer it4.Close()
	got = nil
	for it4.Next() {
		got = append(got, string(it4.Record().Key))
	}
	require.Equal(t, []string{"d", "e"}, got)

	it5, err := e.Enumerate("docs", nil, nil, engine.IterOptions{ContentOptions: engine.ContentMetaOnly})
	require.NoError(t, err)
	defer it5.Close()
	require.True(t, it5.Next())
	require.Nil(t, it5.Record().Body)
	require.NotNil(t, it5.Record().Meta)
}

func testEnumerateBySequence(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	for _, k := range []string{"a", "b", "c"} {
		set(t, e, "docs", []byte(k), nil, nil)
	}

	it, err := e.EnumerateBySequence("docs", 2, 0, engine.IterOptions{})
	require.NoError(t, err)
	defer it.Close()

	var got []uint64
	for it.Next() {
		got = append(got, it.Record().Sequence)
	}
	require.Equal(t, []uint64{2, 3}, got)
}

func testTransactionAbort(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	set(t, e, "docs", []byte("a"), []byte("original"), nil)

	tx, err := e.BeginTransaction()
	require.NoError(t, err)
	_, err = tx.Writer("docs").Set([]byte("a"), []byte("changed"), nil)
	require.NoError(t, err)
	_, err = tx.Writer("docs").Set([]byte("new-key"), []byte("m"), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Abort())

	rec, err := e.Get("docs", []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), rec.Meta)

	_, err = e.Get("docs", []byte("new-key"))
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func testNextSequence(t *testing.T, factory Factory) {
	e := newEngine(t, factory)

	tx, err := e.BeginTransaction()
	require.NoError(t, err)
	w := tx.Writer("docs")

	s1, err := w.NextSequence()
	require.NoError(t, err)
	s2, err := w.NextSequence()
	require.NoError(t, err)
	require.Equal(t, s1+1, s2)

	s3, err := w.Set([]byte("final"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, s2+1, s3)
	require.NoError(t, tx.Commit())

	require.Equal(t, s3, e.LastSequence("docs"))
}
