package store

import (
	"github.com/ValentinKolb/vdb/collate"
	"github.com/ValentinKolb/vdb/engine"
)

// ExpiryEnumerator walks the expiry store's forward index
// (timestamp, docID) -> docID, yielding doc ids whose
// recorded timestamp is at or before the enumerator's snapshot time,
// per spec §4.6.
type ExpiryEnumerator struct {
	db  *Database
	now float64

	it       engine.Iterator
	curDocID string
	curKey   []byte
	err      error
}

// Expire records docID's expiration time within tx, writing both the
// forward (ts, docID) -> docID marker and the reverse docID -> forward-key
// entry the bi-directional index in spec §4.6/§6.4 requires.
func (db *Database) Expire(tx *Transaction, docID string, unixSeconds float64) error {
	fwd := encodeExpiryKey(unixSeconds, docID)
	w := tx.writer(expiryStoreName)
	if _, err := w.Set(fwd, nil, []byte(docID)); err != nil {
		return catchBoundary(ErrEngine(err, "write expiry forward entry"))
	}
	if _, err := w.Set(reverseExpiryKey(docID), nil, fwd); err != nil {
		return catchBoundary(ErrEngine(err, "write expiry reverse entry"))
	}
	return nil
}

// NewExpiryEnumerator captures now as the enumeration's snapshot boundary
// and constructs an iterator over every forward entry at or before it, per
// spec §4.6's "construction captures endTimestamp = now".
func (db *Database) NewExpiryEnumerator(now float64) (*ExpiryEnumerator, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.newExpiryEnumeratorLocked(now)
}

func (db *Database) newExpiryEnumeratorLocked(now float64) (*ExpiryEnumerator, error) {
	// Forward keys all begin with the collate array tag; starting there
	// keeps the reverse entries (prefixed "\x00rev\x00") out of the scan.
	lowerBound := collate.NewBuilder().BeginArray().Bytes()
	upperBound := expiryPrefixUpperBound(now)
	it, err := db.eng.Enumerate(expiryStoreName, lowerBound, upperBound, engine.IterOptions{})
	if err != nil {
		return nil, catchBoundary(ErrEngine(err, "enumerate expiry store"))
	}
	return &ExpiryEnumerator{db: db, now: now, it: it}, nil
}

// Reset rebuilds the enumerator against a fresh now snapshot, releasing the
// previous iterator, per spec §4.6's reset().
func (e *ExpiryEnumerator) Reset(now float64) error {
	if err := e.it.Close(); err != nil {
		return catchBoundary(ErrEngine(err, "close expiry iterator"))
	}
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	fresh, err := e.db.newExpiryEnumeratorLocked(now)
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// Next advances to the next expired entry.
func (e *ExpiryEnumerator) Next() bool {
	if !e.it.Next() {
		if err := e.it.Err(); err != nil {
			e.err = catchBoundary(ErrEngine(err, "iterate expiry store"))
		}
		return false
	}
	rec := e.it.Record()
	e.curKey = rec.Key
	e.curDocID = string(rec.Body)
	return true
}

// DocID returns the current entry's decoded document id.
func (e *ExpiryEnumerator) DocID() string { return e.curDocID }

// Key returns the current entry's raw forward key, for use with Purge.
func (e *ExpiryEnumerator) Key() []byte { return e.curKey }

func (e *ExpiryEnumerator) Err() error { return e.err }

func (e *ExpiryEnumerator) Close() error {
	if err := e.it.Close(); err != nil {
		return catchBoundary(ErrEngine(err, "close expiry iterator"))
	}
	return nil
}

// ExpiryEntry identifies one forward/reverse entry pair to remove, as
// yielded by ExpiryEnumerator.
type ExpiryEntry struct {
	Key   []byte
	DocID string
}

// Purge deletes both the forward and reverse entries for every (key,
// docID) pair in entries, within its own transaction: commits on clean
// exit, aborts on any failure, per spec §4.6.
func (db *Database) Purge(entries []ExpiryEntry) error {
	tx, err := db.BeginTransaction()
	if err != nil {
		return err
	}
	w := tx.writer(expiryStoreName)
	for _, ent := range entries {
		if err := w.Delete(ent.Key); err != nil {
			_ = tx.EndTransaction(false)
			return catchBoundary(ErrEngine(err, "delete expiry forward entry"))
		}
		if err := w.Delete(reverseExpiryKey(ent.DocID)); err != nil {
			_ = tx.EndTransaction(false)
			return catchBoundary(ErrEngine(err, "delete expiry reverse entry"))
		}
	}
	if err := tx.EndTransaction(true); err != nil {
		return err
	}
	db.purges.Add(len(entries))
	return nil
}

// --------------------------------------------------------------------------
// Key encoding
// --------------------------------------------------------------------------

func encodeExpiryKey(unixSeconds float64, docID string) []byte {
	return collate.NewBuilder().
		BeginArray().
		WriteDouble(unixSeconds).
		WriteEmptyMap().
		WriteString(docID).
		Bytes()
}

func reverseExpiryKey(docID string) []byte {
	return append([]byte("\x00rev\x00"), docID...)
}

// expiryPrefixUpperBound computes an exclusive upper bound that includes
// every forward key whose timestamp is <= now, regardless of docID.
// encode(array[now,{}]) alone (without a docID field) is a strict prefix of
// every full key sharing that timestamp, and a prefix sorts *before* any
// string extending it — so using it directly as an exclusive end would drop
// exact-timestamp matches. Incrementing its last byte instead yields a key
// that is greater than any extension of the prefix, giving true <=now
// coverage; see engine/engines/pebbleengine/keys.go for the same trick used
// for the same reason.
func expiryPrefixUpperBound(now float64) []byte {
	prefix := collate.NewBuilder().BeginArray().WriteDouble(now).WriteEmptyMap().Bytes()
	bound := append([]byte(nil), prefix...)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] != 0xff {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil // all 0xff: unbounded above, extremely unlikely for this key shape
}
