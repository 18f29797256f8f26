package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func expireDoc(t *testing.T, db *Database, docID string, ts float64) {
	t.Helper()
	tx, err := db.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, db.Expire(tx, docID, ts))
	require.NoError(t, tx.EndTransaction(true))
}

func TestExpiryEnumeratorIncludesExactTimestampMatch(t *testing.T) {
	db := openTestDB(t)
	expireDoc(t, db, "doc1", 1000)

	enum, err := db.NewExpiryEnumerator(1000)
	require.NoError(t, err)
	defer enum.Close()

	require.True(t, enum.Next(), "an entry whose timestamp equals now must be included")
	require.Equal(t, "doc1", enum.DocID())
	require.NoError(t, enum.Err())
	require.False(t, enum.Next())
}

func TestExpiryEnumeratorExcludesFutureEntries(t *testing.T) {
	db := openTestDB(t)
	expireDoc(t, db, "past", 500)
	expireDoc(t, db, "future", 1500)

	enum, err := db.NewExpiryEnumerator(1000)
	require.NoError(t, err)
	defer enum.Close()

	var seen []string
	for enum.Next() {
		seen = append(seen, enum.DocID())
	}
	require.NoError(t, enum.Err())
	require.Equal(t, []string{"past"}, seen)
}

func TestExpiryPurgeRemovesForwardAndReverseEntries(t *testing.T) {
	db := openTestDB(t)
	expireDoc(t, db, "doc1", 100)

	enum, err := db.NewExpiryEnumerator(100)
	require.NoError(t, err)
	var entries []ExpiryEntry
	for enum.Next() {
		entries = append(entries, ExpiryEntry{Key: append([]byte(nil), enum.Key()...), DocID: enum.DocID()})
	}
	require.NoError(t, enum.Err())
	require.NoError(t, enum.Close())
	require.Len(t, entries, 1)

	require.NoError(t, db.Purge(entries))

	after, err := db.NewExpiryEnumerator(100)
	require.NoError(t, err)
	defer after.Close()
	require.False(t, after.Next())
	require.NoError(t, after.Err())
}

func TestExpiryReset(t *testing.T) {
	db := openTestDB(t)
	expireDoc(t, db, "early", 10)
	expireDoc(t, db, "late", 200)

	enum, err := db.NewExpiryEnumerator(10)
	require.NoError(t, err)
	defer enum.Close()
	require.True(t, enum.Next())
	require.Equal(t, "early", enum.DocID())
	require.False(t, enum.Next())

	require.NoError(t, enum.Reset(200))
	var seen []string
	for enum.Next() {
		seen = append(seen, enum.DocID())
	}
	require.NoError(t, enum.Err())
	require.Equal(t, []string{"early", "late"}, seen)
}
