// Package engine defines the pluggable ordered key-value substrate that the
// store package's document model is built on.
//
// An Engine groups one or more named KeyStores inside a single physical
// database. Keys within a KeyStore are kept in bytewise order; every
// committed write is assigned a strictly increasing per-store sequence
// number. Writes reach an Engine only through a Transaction, obtained with
// BeginTransaction, which commits or aborts as a unit across every named
// store it touched.
//
// Key components:
//
//   - Engine: the top-level handle; Get/GetBySequence/Enumerate for reads,
//     BeginTransaction for writes.
//   - Transaction / Writer: the scoped write façade.
//   - Iterator: a lazy, range-bounded cursor over a KeyStore.
//   - Options: bit-exact engine configuration (buffer cache, WAL behavior,
//     compression, compactor probe interval — see DefaultOptions).
//
// Two implementations are provided:
//
//   - engine/engines/btreeengine: an in-memory engine backed by
//     github.com/google/btree, used for tests and the CLI's --engine=memory
//     mode.
//   - engine/engines/pebbleengine: a durable, on-disk engine backed by
//     github.com/cockroachdb/pebble, an LSM-tree key-value store whose own
//     ordering and sequencing guarantees make it a natural fit behind this
//     interface.
//
// The engine/enginetest package provides a conformance suite
// (RunEngineTests) that both implementations are tested against.
package engine
