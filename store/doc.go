// Package store implements the document-oriented façade atop an
// engine.Engine: Database handles with nested transactions, VersionedDocument
// with a revision tree (conflict detection, history merge, depth-bounded
// pruning), a raw auxiliary key-store accessor, key/sequence-ordered
// enumerators, and a collation-indexed expiry sweep.
//
// Writes flow Database -> Transaction -> KeyStoreWriter -> engine.Engine.
// Reads flow Database -> DocEnumerator/engine.Engine -> VersionedDocument.
// Every public operation is a boundary: internal failures are caught and
// returned as a *Error rather than propagated raw (see errors.go).
package store
