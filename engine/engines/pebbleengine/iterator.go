package pebbleengine

import (
	"github.com/cockroachdb/pebble"

	"github.com/ValentinKolb/vdb/engine"
)

// dataIterator walks a document-row region of the keyspace, taken from a
// pebble.Snapshot so writes committed after construction never surface
// mid-iteration (see spec guidance on enumerator snapshot semantics).
type dataIterator struct {
	snap          *pebble.Snapshot
	it            *pebble.Iterator
	prefix        []byte
	opts          engine.IterOptions
	started       bool
	skipRemaining int
	cur           engine.Record
}

func newDataIterator(snap *pebble.Snapshot, it *pebble.Iterator, prefix []byte, opts engine.IterOptions) *dataIterator {
	return &dataIterator{snap: snap, it: it, prefix: prefix, opts: opts, skipRemaining: opts.Skip}
}

func (d *dataIterator) advance() bool {
	if !d.started {
		d.started = true
		if d.opts.Descending {
			return d.it.Last()
		}
		return d.it.First()
	}
	if d.opts.Descending {
		return d.it.Prev()
	}
	return d.it.Next()
}

func (d *dataIterator) Next() bool {
	for d.advance() {
		if d.skipRemaining > 0 {
			d.skipRemaining--
			continue
		}
		docKey := append([]byte(nil), d.it.Key()[len(d.prefix):]...)
		seq, meta, body := decodeValue(d.it.Value())
		rec := engine.Record{Key: docKey, Meta: append([]byte(nil), meta...), Sequence: seq, Exists: true}
		if d.opts.ContentOptions != engine.ContentMetaOnly {
			rec.Body = append([]byte(nil), body...)
		}
		d.cur = rec
		return true
	}
	return false
}

func (d *dataIterator) Record() engine.Record { return d.cur }

func (d *dataIterator) Err() error { return d.it.Error() }

func (d *dataIterator) Close() error {
	err1 := d.it.Close()
	err2 := d.snap.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// seqIterator walks the sequence-index region; each entry's value is the
// docID, which it resolves against the same snapshot to load the full record.
type seqIterator struct {
	snap          *pebble.Snapshot
	it            *pebble.Iterator
	store         string
	opts          engine.IterOptions
	started       bool
	skipRemaining int
	cur           engine.Record
	err           error
}

func newSeqIterator(snap *pebble.Snapshot, it *pebble.Iterator, store string, opts engine.IterOptions) *seqIterator {
	return &seqIterator{snap: snap, it: it, store: store, opts: opts, skipRemaining: opts.Skip}
}

func (d *seqIterator) advance() bool {
	if !d.started {
		d.started = true
		if d.opts.Descending {
			return d.it.Last()
		}
		return d.it.First()
	}
	if d.opts.Descending {
		return d.it.Prev()
	}
	return d.it.Next()
}

func (d *seqIterator) Next() bool {
	for d.advance() {
		if d.skipRemaining > 0 {
			d.skipRemaining--
			continue
		}
		docKey := append([]byte(nil), d.it.Value()...)
		v, closer, err := d.snap.Get(dataKey(d.store, docKey))
		if err != nil {
			d.err = err
			return false
		}
		seq, meta, body := decodeValue(v)
		rec := engine.Record{Key: docKey, Meta: append([]byte(nil), meta...), Sequence: seq, Exists: true}
		if d.opts.ContentOptions != engine.ContentMetaOnly {
			rec.Body = append([]byte(nil), body...)
		}
		closer.Close()
		d.cur = rec
		return true
	}
	return false
}

func (d *seqIterator) Record() engine.Record { return d.cur }

func (d *seqIterator) Err() error {
	if d.err != nil {
		return d.err
	}
	return d.it.Error()
}

func (d *seqIterator) Close() error {
	err1 := d.it.Close()
	err2 := d.snap.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
