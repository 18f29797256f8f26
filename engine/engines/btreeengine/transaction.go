package btreeengine

import (
	"github.com/cockroachdb/errors"

	"github.com/ValentinKolb/vdb/engine"
)

// writer is the per-store write façade handed out by a transaction. Writes
// apply to the namedStore immediately; rollback on Abort is handled by the
// transaction's undo log rather than by staging writes until Commit, since
// at most one transaction is ever active on an Engine at a time (see
// Engine.BeginTransaction).
type writer struct {
	tx        *transaction
	ns        *namedStore
	storeName string
}

func (w *writer) Set(key, meta, body []byte) (uint64, error) {
	w.tx.recordUndo(w.storeName, w.ns, key)
	return w.ns.set(key, meta, body), nil
}

func (w *writer) Delete(key []byte) error {
	w.tx.recordUndo(w.storeName, w.ns, key)
	w.ns.delete(key)
	return nil
}

func (w *writer) NextSequence() (uint64, error) {
	return w.ns.nextSequence(), nil
}

// undoEntry captures a (store, key)'s state as of its first touch within a
// transaction, so Abort can restore it.
type undoEntry struct {
	ns      *namedStore
	key     []byte
	existed bool
	rec     engine.Record
}

type transaction struct {
	eng     *Engine
	writers map[string]*writer
	undo    []undoEntry
	touched map[string]bool
	done    bool
}

func (t *transaction) Writer(store string) engine.Writer {
	w, ok := t.writers[store]
	if !ok {
		w = &writer{tx: t, ns: t.eng.store(store), storeName: store}
		t.writers[store] = w
	}
	return w
}

func (t *transaction) recordUndo(storeName string, ns *namedStore, key []byte) {
	dedupKey := storeName + "\x00" + string(key)
	if t.touched == nil {
		t.touched = make(map[string]bool)
	}
	if t.touched[dedupKey] {
		return
	}
	t.touched[dedupKey] = true
	prev, err := ns.get(key)
	if errors.Is(err, engine.ErrNotFound) {
		t.undo = append(t.undo, undoEntry{ns: ns, key: key, existed: false})
		return
	}
	t.undo = append(t.undo, undoEntry{ns: ns, key: key, existed: true, rec: prev})
}

func (t *transaction) Commit() error {
	if t.done {
		return errors.New("btreeengine: transaction already closed")
	}
	t.done = true
	t.eng.mu.Lock()
	t.eng.inTx = false
	t.eng.mu.Unlock()
	return nil
}

// Abort replays the undo log in reverse. Sequence numbers consumed by the
// aborted writes (and by the replacement writes Abort itself performs) are
// not reclaimed; lastSequence only needs to be monotonic, not gapless.
func (t *transaction) Abort() error {
	if t.done {
		return errors.New("btreeengine: transaction already closed")
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		e := t.undo[i]
		if e.existed {
			e.ns.set(e.key, e.rec.Meta, e.rec.Body)
		} else {
			e.ns.delete(e.key)
		}
	}
	t.eng.mu.Lock()
	t.eng.inTx = false
	t.eng.mu.Unlock()
	return nil
}
