// Package btreeengine implements engine.Engine entirely in memory on top of
// github.com/google/btree, an in-memory, ordered B-tree. It is the default
// engine for unit tests and for vdbctl's --engine=memory mode: no file
// descriptors, no background compaction, a fresh and empty database every
// process start.
//
// Durability and the WAL/flush/buffer-cache knobs of engine.Options are
// meaningless for a process-memory engine; Open accepts and stores them
// (Info().Metadata exposes the Options it was opened with) but nothing reads
// them back to change behavior.
package btreeengine
