package pebbleengine

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/ValentinKolb/vdb/engine"
)

type writer struct {
	tx    *transaction
	store string
}

func (w *writer) Set(key, meta, body []byte) (uint64, error) {
	// Drop the committed record's sequence-index entry so an overwritten
	// sequence no longer resolves.
	if rec, err := w.tx.eng.Get(w.store, key); err == nil {
		if err := w.tx.batch.Delete(seqIdxKey(w.store, rec.Sequence), nil); err != nil {
			return 0, errors.Wrap(err, "pebbleengine: stage sequence index delete")
		}
	} else if !errors.Is(err, engine.ErrNotFound) {
		return 0, err
	}
	seq := w.tx.bumpSeq(w.store)
	if err := w.tx.batch.Set(dataKey(w.store, key), encodeValue(seq, meta, body), nil); err != nil {
		return 0, errors.Wrap(err, "pebbleengine: stage set")
	}
	if err := w.tx.batch.Set(seqIdxKey(w.store, seq), key, nil); err != nil {
		return 0, errors.Wrap(err, "pebbleengine: stage sequence index")
	}
	return seq, nil
}

func (w *writer) Delete(key []byte) error {
	if rec, err := w.tx.eng.Get(w.store, key); err == nil {
		if err := w.tx.batch.Delete(seqIdxKey(w.store, rec.Sequence), nil); err != nil {
			return errors.Wrap(err, "pebbleengine: stage sequence index delete")
		}
	} else if !errors.Is(err, engine.ErrNotFound) {
		return err
	}
	if err := w.tx.batch.Delete(dataKey(w.store, key), nil); err != nil {
		return errors.Wrap(err, "pebbleengine: stage delete")
	}
	return nil
}

func (w *writer) NextSequence() (uint64, error) {
	return w.tx.bumpSeq(w.store), nil
}

// transaction stages every write in a pebble.Batch; nothing touches the
// database until Commit. pendingSeq tracks the working sequence watermark
// per store so NextSequence/Set can hand out increasing numbers before the
// batch is committed.
type transaction struct {
	eng        *Engine
	batch      *pebble.Batch
	writers    map[string]*writer
	pendingSeq map[string]uint64
	done       bool
}

func (t *transaction) Writer(store string) engine.Writer {
	w, ok := t.writers[store]
	if !ok {
		w = &writer{tx: t, store: store}
		t.writers[store] = w
	}
	return w
}

func (t *transaction) bumpSeq(store string) uint64 {
	v, ok := t.pendingSeq[store]
	if !ok {
		t.eng.mu.Lock()
		v = t.eng.seq[store]
		t.eng.mu.Unlock()
	}
	v++
	t.pendingSeq[store] = v
	return v
}

func (t *transaction) Commit() error {
	if t.done {
		return errors.New("pebbleengine: transaction already closed")
	}
	t.done = true
	for store, seq := range t.pendingSeq {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], seq)
		if err := t.batch.Set(counterKey(store), buf[:], nil); err != nil {
			return errors.Wrap(err, "pebbleengine: stage counter")
		}
	}
	wo := pebble.NoSync
	if t.eng.opts.FlushWALBeforeCommit {
		wo = pebble.Sync
	}
	if err := t.batch.Commit(wo); err != nil {
		return errors.Wrap(err, "pebbleengine: commit")
	}
	t.eng.mu.Lock()
	for store, seq := range t.pendingSeq {
		t.eng.seq[store] = seq
	}
	t.eng.inTx = false
	t.eng.mu.Unlock()
	return nil
}

func (t *transaction) Abort() error {
	if t.done {
		return errors.New("pebbleengine: transaction already closed")
	}
	t.done = true
	err := t.batch.Close()
	t.eng.mu.Lock()
	t.eng.inTx = false
	t.eng.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "pebbleengine: abort")
	}
	return nil
}
