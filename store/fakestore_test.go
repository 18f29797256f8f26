package store

import (
	"bytes"

	"github.com/ValentinKolb/vdb/engine"
)

// fakeStoreWriter is a minimal in-memory stand-in for an engine.Writer,
// enough to exercise VersionedDocument.Save without a real engine.Engine.
type fakeStoreWriter struct {
	nextSeq uint64
	entries map[string][2][]byte // key -> [meta, body]
}

func newFakeStoreWriter() *fakeStoreWriter {
	return &fakeStoreWriter{entries: make(map[string][2][]byte)}
}

func (f *fakeStoreWriter) Set(key, meta, body []byte) (uint64, error) {
	f.nextSeq++
	f.entries[string(key)] = [2][]byte{meta, body}
	return f.nextSeq, nil
}

func (f *fakeStoreWriter) Delete(key []byte) error {
	delete(f.entries, string(key))
	return nil
}

func (f *fakeStoreWriter) NextSequence() (uint64, error) {
	f.nextSeq++
	return f.nextSeq, nil
}

func (f *fakeStoreWriter) get(key []byte) (meta, body []byte) {
	v, ok := f.entries[string(key)]
	if !ok {
		return nil, nil
	}
	return v[0], v[1]
}

// fakeStoreReader adapts a *fakeStoreWriter's entries to document.go's
// storeReader interface.
type fakeStoreReader struct {
	w *fakeStoreWriter
}

func (r fakeStoreReader) Get(key []byte) (engine.Record, error) {
	v, ok := r.w.entries[string(key)]
	if !ok {
		return engine.Record{}, engine.ErrNotFound
	}
	return engine.Record{Key: bytes.Clone(key), Meta: v[0], Body: v[1], Exists: true}, nil
}
