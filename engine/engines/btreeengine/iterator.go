package btreeengine

import "github.com/ValentinKolb/vdb/engine"

// sliceIterator adapts a pre-filtered, key-ordered slice of records to
// engine.Iterator. Snapshotting the whole range up front (see
// namedStore.snapshotByKey/snapshotBySeq) means a concurrent write started
// after the iterator was created never surfaces mid-iteration.
type sliceIterator struct {
	records []engine.Record
	pos     int
}

func newSliceIterator(records []engine.Record, opts engine.IterOptions) *sliceIterator {
	if opts.Descending {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
	if opts.Skip > 0 {
		if opts.Skip >= len(records) {
			records = nil
		} else {
			records = records[opts.Skip:]
		}
	}
	return &sliceIterator{records: records, pos: -1}
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.records)
}

func (it *sliceIterator) Record() engine.Record {
	return it.records[it.pos]
}

func (it *sliceIterator) Err() error { return nil }

func (it *sliceIterator) Close() error { return nil }
