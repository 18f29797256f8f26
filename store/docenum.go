package store

import "github.com/ValentinKolb/vdb/engine"

// DocEnumeratorOptions mirrors spec §4.5's option set.
type DocEnumeratorOptions struct {
	Skip           int
	Descending     bool
	InclusiveEnd   bool
	IncludeDeleted bool
	MetaOnly       bool
}

func (o DocEnumeratorOptions) toIterOptions() engine.IterOptions {
	content := engine.ContentFull
	if o.MetaOnly {
		content = engine.ContentMetaOnly
	}
	return engine.IterOptions{
		Skip:           o.Skip,
		Descending:     o.Descending,
		InclusiveEnd:   o.InclusiveEnd,
		IncludeDeleted: o.IncludeDeleted,
		ContentOptions: content,
	}
}

// DocEnumerator lazily walks the default store by key or sequence range,
// decoding each record into a VersionedDocument and transparently skipping
// soft-deleted documents unless IncludeDeleted is set, per spec §4.5.
type DocEnumerator struct {
	it       engine.Iterator
	includeD bool
	current  *VersionedDocument
	err      error
}

// ByKeyRange constructs a DocEnumerator over [startKey, endKey) of the
// default store, or [startKey, endKey] with InclusiveEnd. A nil startKey
// means "from the beginning"; a nil endKey means "to the end".
func (db *Database) ByKeyRange(startKey, endKey []byte, opts DocEnumeratorOptions) (*DocEnumerator, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := db.eng.Enumerate(DefaultStore, startKey, endKey, opts.toIterOptions())
	if err != nil {
		return nil, catchBoundary(ErrEngine(err, "enumerate default store"))
	}
	return &DocEnumerator{it: it, includeD: opts.IncludeDeleted}, nil
}

// BySequenceRange constructs a DocEnumerator over [startSeq, endSeq) of the
// default store, or [startSeq, endSeq] with InclusiveEnd, ordered by
// sequence. An endSeq of 0 means "to the end".
func (db *Database) BySequenceRange(startSeq, endSeq uint64, opts DocEnumeratorOptions) (*DocEnumerator, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := db.eng.EnumerateBySequence(DefaultStore, startSeq, endSeq, opts.toIterOptions())
	if err != nil {
		return nil, catchBoundary(ErrEngine(err, "enumerate default store by sequence"))
	}
	return &DocEnumerator{it: it, includeD: opts.IncludeDeleted}, nil
}

// Next advances to the next matching document. It returns false at the end
// of the range or on error; callers must check Err(). End-of-iteration is
// not itself an error, per spec §4.5.
func (e *DocEnumerator) Next() bool {
	for e.it.Next() {
		rec := e.it.Record()
		doc, err := decodeDocument(DefaultStore, rec.Key, rec.Meta, rec.Body)
		if err != nil {
			e.err = catchBoundary(err)
			return false
		}
		if !e.includeD {
			if cur := doc.Current(); cur != nil && cur.IsDeleted() {
				continue
			}
		}
		e.current = doc
		return true
	}
	if err := e.it.Err(); err != nil {
		e.err = catchBoundary(ErrEngine(err, "iterate default store"))
	}
	return false
}

// Document returns the document the enumerator currently points at. Only
// valid after a Next call that returned true.
func (e *DocEnumerator) Document() *VersionedDocument { return e.current }

func (e *DocEnumerator) Err() error { return e.err }

func (e *DocEnumerator) Close() error {
	if err := e.it.Close(); err != nil {
		return catchBoundary(ErrEngine(err, "close enumerator"))
	}
	return nil
}
