package btreeengine

import (
	"bytes"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/vdb/engine"
)

// btreeDegree matches the teacher's maple engine default branching factor.
const btreeDegree = 32

// record is the value type shared by every entry in a namedStore's two
// trees. byKeyItem and seqItem each wrap a *record with a different sort
// key so the same underlying value is reachable by key or by sequence.
type record struct {
	key  []byte
	meta []byte
	body []byte
	seq  uint64
}

func (r *record) toRecord() engine.Record {
	return engine.Record{Key: r.key, Meta: r.meta, Body: r.body, Sequence: r.seq, Exists: true}
}

type byKeyItem struct{ rec *record }

func (a byKeyItem) Less(than btree.Item) bool {
	return bytes.Compare(a.rec.key, than.(byKeyItem).rec.key) < 0
}

type bySeqItem struct{ rec *record }

func (a bySeqItem) Less(than btree.Item) bool {
	return a.rec.seq < than.(bySeqItem).rec.seq
}

// namedStore is one engine.Engine-level KeyStore: an ordered-by-key tree and
// a parallel ordered-by-sequence tree over the same records.
type namedStore struct {
	mu      sync.RWMutex
	byKey   *btree.BTree
	bySeq   *btree.BTree
	lastSeq uint64
}

func newNamedStore() *namedStore {
	return &namedStore{byKey: btree.New(btreeDegree), bySeq: btree.New(btreeDegree)}
}

func (s *namedStore) get(key []byte) (engine.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.byKey.Get(byKeyItem{&record{key: key}})
	if item == nil {
		return engine.Record{}, engine.ErrNotFound
	}
	return item.(byKeyItem).rec.toRecord(), nil
}

func (s *namedStore) getBySequence(seq uint64) (engine.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.bySeq.Get(bySeqItem{&record{seq: seq}})
	if item == nil {
		return engine.Record{}, engine.ErrNotFound
	}
	return item.(bySeqItem).rec.toRecord(), nil
}

func (s *namedStore) lastSequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeq
}

// nextSequence burns the next sequence number without writing a record.
func (s *namedStore) nextSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	return s.lastSeq
}

// set writes key -> (meta, body), replacing the prior sequence-tree entry
// for key if one existed, and returns the newly assigned sequence.
func (s *namedStore) set(key, meta, body []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	seq := s.lastSeq
	rec := &record{key: key, meta: meta, body: body, seq: seq}
	if old := s.byKey.ReplaceOrInsert(byKeyItem{rec}); old != nil {
		s.bySeq.Delete(bySeqItem{old.(byKeyItem).rec})
	}
	s.bySeq.ReplaceOrInsert(bySeqItem{rec})
	return seq
}

func (s *namedStore) delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.byKey.Delete(byKeyItem{&record{key: key}})
	if old == nil {
		return
	}
	s.bySeq.Delete(bySeqItem{old.(byKeyItem).rec})
}

// snapshot returns every record in the store ordered by key, as a slice.
// The store package enumerates via snapshot iterators (see iterator.go),
// which sidesteps the mutate-while-iterating hazard spec §9 flags for the
// expiry purge path.
func (s *namedStore) snapshotByKey() []engine.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Record, 0, s.byKey.Len())
	s.byKey.Ascend(func(i btree.Item) bool {
		out = append(out, i.(byKeyItem).rec.toRecord())
		return true
	})
	return out
}

func (s *namedStore) snapshotBySeq() []engine.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Record, 0, s.bySeq.Len())
	s.bySeq.Ascend(func(i btree.Item) bool {
		out = append(out, i.(bySeqItem).rec.toRecord())
		return true
	})
	return out
}

// Engine is an in-memory engine.Engine backed by github.com/google/btree.
// The namedStore registry itself is a lock-free xsync.MapOf (the teacher's
// maple engine uses the same type for its per-shard entry maps, see
// maple/internal.Shard.Data): store lookups and first-touch creation never
// contend with each other, unlike the per-store btrees underneath, which
// still need ordered traversal and so keep their own RWMutex.
type Engine struct {
	mu     sync.Mutex // guards only the single-active-transaction rule and closed
	stores *xsync.MapOf[string, *namedStore]
	opts   engine.Options
	inTx   bool
	closed bool
}

var _ engine.Factory = Open

// Open constructs a new, empty in-memory Engine. path is accepted for
// signature compatibility with engine.Factory and ignored.
func Open(_ string, opts engine.Options) (engine.Engine, error) {
	return &Engine{stores: xsync.NewMapOf[string, *namedStore](), opts: opts}, nil
}

func (e *Engine) store(name string) *namedStore {
	s, _ := e.stores.LoadOrStore(name, newNamedStore())
	return s
}

func (e *Engine) Get(store string, key []byte) (engine.Record, error) {
	return e.store(store).get(key)
}

func (e *Engine) GetBySequence(store string, seq uint64) (engine.Record, error) {
	return e.store(store).getBySequence(seq)
}

func (e *Engine) LastSequence(store string) uint64 {
	return e.store(store).lastSequence()
}

func (e *Engine) Enumerate(store string, start, end []byte, opts engine.IterOptions) (engine.Iterator, error) {
	all := e.store(store).snapshotByKey()
	filtered := make([]engine.Record, 0, len(all))
	for _, r := range all {
		if start != nil && bytes.Compare(r.Key, start) < 0 {
			continue
		}
		if end != nil {
			cmp := bytes.Compare(r.Key, end)
			if opts.InclusiveEnd {
				if cmp > 0 {
					continue
				}
			} else if cmp >= 0 {
				continue
			}
		}
		filtered = append(filtered, stripContent(r, opts.ContentOptions))
	}
	return newSliceIterator(filtered, opts), nil
}

func (e *Engine) EnumerateBySequence(store string, startSeq, endSeq uint64, opts engine.IterOptions) (engine.Iterator, error) {
	all := e.store(store).snapshotBySeq()
	filtered := make([]engine.Record, 0, len(all))
	for _, r := range all {
		if r.Sequence < startSeq {
			continue
		}
		if endSeq != 0 {
			if opts.InclusiveEnd {
				if r.Sequence > endSeq {
					continue
				}
			} else if r.Sequence >= endSeq {
				continue
			}
		}
		filtered = append(filtered, stripContent(r, opts.ContentOptions))
	}
	return newSliceIterator(filtered, opts), nil
}

func stripContent(r engine.Record, co engine.ContentOptions) engine.Record {
	if co == engine.ContentMetaOnly {
		r.Body = nil
	}
	return r
}

func (e *Engine) BeginTransaction() (engine.Transaction, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, errors.New("btreeengine: engine is closed")
	}
	if e.inTx {
		e.mu.Unlock()
		return nil, errors.New("btreeengine: a transaction is already active")
	}
	e.inTx = true
	e.mu.Unlock()
	return &transaction{eng: e, writers: make(map[string]*writer)}, nil
}

func (e *Engine) Info() engine.Info {
	var size int64
	e.stores.Range(func(_ string, s *namedStore) bool {
		size += int64(s.byKey.Len())
		return true
	})
	return engine.Info{Impl: engine.ImplBTree, SizeBytes: size, Metadata: e.opts}
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stores = xsync.NewMapOf[string, *namedStore]()
	return nil
}
