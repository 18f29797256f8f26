package store

import "github.com/ValentinKolb/vdb/engine"

// RawStore is the secondary, opaque-record accessor described by spec
// §4.4: get/put of explicit (key, meta, body) triples in a named auxiliary
// KeyStore, with no rev-tree semantics attached.
type RawStore struct {
	db    *Database
	store string
}

// RawStore returns an accessor bound to the named auxiliary store.
func (db *Database) RawStore(store string) *RawStore {
	return &RawStore{db: db, store: store}
}

// Get fetches (key, meta, body) from the store, or ErrNotFound.
func (rs *RawStore) Get(key []byte) (meta, body []byte, err error) {
	rs.db.mu.Lock()
	defer rs.db.mu.Unlock()

	rec, err := rs.db.eng.Get(rs.store, key)
	if err == engine.ErrNotFound {
		return nil, nil, catchBoundary(ErrNotFound("raw record not found"))
	}
	if err != nil {
		return nil, nil, catchBoundary(ErrEngine(err, "get raw record"))
	}
	return rec.Meta, rec.Body, nil
}

// Put writes (key, meta, body) within tx. Per c4raw_put's convention
// (spec §4.4, SPEC_FULL supplemented feature #2), empty meta AND empty
// body together mean "delete this key".
func (rs *RawStore) Put(tx *Transaction, key, meta, body []byte) error {
	w := tx.writer(rs.store)
	if len(meta) == 0 && len(body) == 0 {
		if err := w.Delete(key); err != nil {
			return catchBoundary(ErrEngine(err, "delete raw record"))
		}
		return nil
	}
	if _, err := w.Set(key, meta, body); err != nil {
		return catchBoundary(ErrEngine(err, "put raw record"))
	}
	return nil
}

// PutAuto brackets its own transaction around a single put, mirroring
// c4raw_put's transactional auto-wrap (SPEC_FULL supplemented feature #4)
// for callers that don't already hold one.
func (rs *RawStore) PutAuto(key, meta, body []byte) error {
	tx, err := rs.db.BeginTransaction()
	if err != nil {
		return err
	}
	if err := rs.Put(tx, key, meta, body); err != nil {
		_ = tx.EndTransaction(false)
		return err
	}
	return tx.EndTransaction(true)
}
