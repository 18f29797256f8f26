package store

import (
	"sync"
	"time"

	"github.com/ValentinKolb/vdb/engine"
	"github.com/ValentinKolb/vdb/engine/util"
	"github.com/ValentinKolb/vdb/revid"
	"github.com/VictoriaMetrics/metrics"
)

const (
	// DefaultStore is the name of the default KeyStore documents live in.
	DefaultStore = "default"
	// overflowStoreName holds bodies too large to inline with the
	// document's metadata, keyed by (docID, sequence). See spec §6.4.
	overflowStoreName = "overflow"
	// expiryStoreName holds the collation-encoded expiry index.
	expiryStoreName = "expiry"
)

// EngineOptions mirrors spec §6.3's bit-exact engine configuration.
func EngineOptions(readOnly bool) engine.Options {
	opts := engine.DefaultOptions()
	opts.ReadOnly = readOnly
	opts.BufferCacheBytes = 8 << 20
	opts.WALThreshold = 1024
	opts.FlushWALBeforeCommit = true
	opts.SequenceTreeOptimization = true
	opts.BodyCompression = true
	opts.CompactorProbeInterval = 300 * time.Second
	return opts
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// Database is a handle grouping a default KeyStore and named auxiliary
// stores over one engine.Engine, tracking nested-transaction depth. All
// operations on one Database serialize under mu, per spec §5.
type Database struct {
	mu     sync.Mutex
	eng    engine.Engine
	txn    engine.Transaction
	depth  int
	poison bool // set when a nested end(false) must force the outer commit to abort
	closed bool

	docSaves  *metrics.Counter
	conflicts *metrics.Counter
	purges    *metrics.Counter

	// bodySizes tracks the winning-revision body size of every document
	// saved this session, letting BodySizeEstimate answer without a scan.
	bodySizes *util.SizeHistogram
}

// Open opens (or creates, unless readOnly) a Database backed by factory at
// path. Read-only forbids create, matching spec §4.1.
func Open(factory engine.Factory, path string, readOnly bool) (*Database, error) {
	eng, err := factory(path, EngineOptions(readOnly))
	if err != nil {
		return nil, ErrEngine(err, "open engine")
	}
	return &Database{
		eng:       eng,
		docSaves:  metrics.GetOrCreateCounter("vdb_document_saves_total"),
		conflicts: metrics.GetOrCreateCounter("vdb_document_conflicts_total"),
		purges:    metrics.GetOrCreateCounter("vdb_expiry_purges_total"),
		bodySizes: util.NewSizeHistogram(),
	}, nil
}

// Close releases the engine handle. Fails-fast (a programmer-error panic,
// per spec §7) if a transaction is still open.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.depth != 0 {
		panic("store: Close called with a transaction still open")
	}
	if db.closed {
		return nil
	}
	db.closed = true
	if err := db.eng.Close(); err != nil {
		return ErrEngine(err, "close engine")
	}
	return nil
}

// DocumentCount iterates the default store in meta-only mode and counts
// entries whose current revision is not deleted, per spec §4.1 and
// SPEC_FULL's supplemented-feature #1 (excludes only fully-deleted
// documents, not conflicted ones).
func (db *Database) DocumentCount() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := db.eng.Enumerate(DefaultStore, nil, nil, engine.IterOptions{
		ContentOptions: engine.ContentMetaOnly,
	})
	if err != nil {
		return 0, catchBoundary(ErrEngine(err, "enumerate default store"))
	}
	defer it.Close()

	count := 0
	for it.Next() {
		rec := it.Record()
		doc, err := decodeDocument(DefaultStore, rec.Key, rec.Meta, nil)
		if err != nil {
			return 0, catchBoundary(err)
		}
		if cur := doc.Current(); cur == nil || !cur.IsDeleted() {
			count++
		}
	}
	if err := it.Err(); err != nil {
		return 0, catchBoundary(ErrEngine(err, "iterate default store"))
	}
	return count, nil
}

// BodySizeEstimate reports average and median winning-revision body sizes
// without scanning the store, via the running engine/util.SizeHistogram
// maintained by every SaveDocument call this session. Empty until at least
// one document with a body has been saved.
func (db *Database) BodySizeEstimate() (avg, median int, count int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.bodySizes.AverageSize(), db.bodySizes.MedianEstimate(), db.bodySizes.GetCount()
}

// Stats reports a distribution-quality summary of inlined document-body
// sizes in the default store, built from a meta+body scan through
// engine/util.NewDistributionStats. Intended for operational sampling, not
// precise accounting: stores with most bodies overflowed report a
// distribution over a small, skewed sample.
func (db *Database) Stats() (util.DistributionStats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := db.eng.Enumerate(DefaultStore, nil, nil, engine.IterOptions{
		ContentOptions: engine.ContentFull,
	})
	if err != nil {
		return util.DistributionStats{}, catchBoundary(ErrEngine(err, "enumerate default store"))
	}
	defer it.Close()

	var sizes []float64
	for it.Next() {
		rec := it.Record()
		if len(rec.Body) > 0 {
			sizes = append(sizes, float64(len(rec.Body)))
		}
	}
	if err := it.Err(); err != nil {
		return util.DistributionStats{}, catchBoundary(ErrEngine(err, "iterate default store"))
	}
	return util.NewDistributionStats(sizes), nil
}

// LastSequence reports the engine's current sequence watermark for the
// default store.
func (db *Database) LastSequence() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.eng.LastSequence(DefaultStore)
}

// --------------------------------------------------------------------------
// Nested transactions
// --------------------------------------------------------------------------

// Transaction is a scoped write handle bound to one Database. Only the
// outermost BeginTransaction/EndTransaction frame owns a real
// engine.Transaction; nested frames share it. A nested End(false) poisons
// the outer frame so the eventual real commit becomes an abort instead,
// per spec §4.1 and §9's "nested transactions as counters" design note.
type Transaction struct {
	db *Database
}

// BeginTransaction increments the nesting depth, creating the underlying
// engine.Transaction only at depth 0.
func (db *Database) BeginTransaction() (*Transaction, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.depth == 0 {
		tx, err := db.eng.BeginTransaction()
		if err != nil {
			return nil, catchBoundary(ErrEngine(err, "begin transaction"))
		}
		db.txn = tx
		db.poison = false
	}
	db.depth++
	return &Transaction{db: db}, nil
}

// EndTransaction decrements the nesting depth. commit is honored only when
// depth returns to zero; a false at any depth poisons the eventual outcome.
// Ending at depth zero is a precondition violation and panics, per spec §7.
func (t *Transaction) EndTransaction(commit bool) error {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.depth == 0 {
		panic("store: EndTransaction called with no transaction open")
	}
	if !commit {
		db.poison = true
	}
	db.depth--
	if db.depth > 0 {
		return nil
	}

	txn := db.txn
	db.txn = nil
	shouldCommit := !db.poison
	db.poison = false

	if shouldCommit {
		if err := txn.Commit(); err != nil {
			return catchBoundary(ErrEngine(err, "commit transaction"))
		}
		return nil
	}
	if err := txn.Abort(); err != nil {
		return catchBoundary(ErrEngine(err, "abort transaction"))
	}
	return nil
}

// writer returns the current Transaction's writer for store. Calling this
// outside a transaction is a precondition violation.
func (t *Transaction) writer(store string) engine.Writer {
	if t.db.txn == nil {
		panic("store: writer requested outside a transaction")
	}
	return t.db.txn.Writer(store)
}

// --------------------------------------------------------------------------
// boundStore: a store.Writer/storeReader bound to one named KeyStore,
// satisfying document.go's storeWriter/storeReader interfaces.
// --------------------------------------------------------------------------

type boundWriter struct {
	w engine.Writer
}

func (b boundWriter) Set(key, meta, body []byte) (uint64, error) { return b.w.Set(key, meta, body) }

type boundReader struct {
	eng   engine.Engine
	store string
}

func (b boundReader) Get(key []byte) (engine.Record, error) { return b.eng.Get(b.store, key) }

// --------------------------------------------------------------------------
// Document operations
// --------------------------------------------------------------------------

// GetDocument loads docID from the default store, or an empty,
// non-existent VersionedDocument if absent.
func (db *Database) GetDocument(docID []byte) (*VersionedDocument, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.getDocumentLocked(docID)
}

func (db *Database) getDocumentLocked(docID []byte) (*VersionedDocument, error) {
	rec, err := db.eng.Get(DefaultStore, docID)
	if err == engine.ErrNotFound {
		return newDocument(DefaultStore, docID), nil
	}
	if err != nil {
		return nil, catchBoundary(ErrEngine(err, "get document"))
	}
	doc, err := decodeDocument(DefaultStore, rec.Key, rec.Meta, rec.Body)
	if err != nil {
		return nil, catchBoundary(err)
	}
	return doc, nil
}

// InsertRevision inserts a new revision into doc, resolving the
// duplicate-revID idempotency check against the overflow store so a
// re-insert of an already-saved, already-overflowed revision succeeds
// instead of spuriously conflicting. See VersionedDocument.Insert.
func (db *Database) InsertRevision(doc *VersionedDocument, newID revid.RevID, body []byte, deleted, hasAttachments bool, parent *Revision, allowConflict bool) (*Revision, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rev, err := doc.Insert(newID, body, deleted, hasAttachments, parent, allowConflict, boundReader{eng: db.eng, store: overflowStoreName})
	if err != nil {
		return nil, catchBoundary(err)
	}
	return rev, nil
}

// SaveDocument persists doc within tx. See VersionedDocument.Save.
func (db *Database) SaveDocument(tx *Transaction, doc *VersionedDocument) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !doc.dirty {
		return nil
	}
	wasConflicted := doc.flags&DocConflicted != 0

	w := tx.writer(DefaultStore)
	overflow := boundWriter{w: tx.writer(overflowStoreName)}
	if err := doc.Save(w, overflow); err != nil {
		return catchBoundary(err)
	}

	db.docSaves.Inc()
	if !wasConflicted && doc.flags&DocConflicted != 0 {
		db.conflicts.Inc()
	}
	if cur := doc.Current(); cur != nil {
		if body := cur.InlineBody(); len(body) > 0 {
			db.bodySizes.AddSample(len(body))
		}
	}
	return nil
}

// ReadBody loads r's body for a document previously obtained from db,
// resolving overflow bodies against the default database's overflow store.
func (db *Database) ReadBody(doc *VersionedDocument, r *Revision) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	body, err := doc.ReadBody(r, boundReader{eng: db.eng, store: overflowStoreName})
	if err != nil {
		return nil, catchBoundary(err)
	}
	return body, nil
}
