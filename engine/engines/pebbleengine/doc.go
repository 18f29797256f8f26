// Package pebbleengine implements engine.Engine on top of
// github.com/cockroachdb/pebble, an on-disk LSM-tree key-value store. This
// is the durable engine used by vdbctl's default --engine=pebble mode and
// by anything that needs a database to survive a process restart.
//
// pebble.DB itself is a single flat keyspace, so named stores are modeled
// as key-prefixed regions of one physical pebble database rather than as
// separate files: a "d\x00<store>\x00<key>" region holds document rows, a
// parallel "s\x00<store>\x00<big-endian-seq>" region indexes those rows by
// sequence number, and a small "c\x00<store>" counter row per store
// persists the sequence watermark across restarts.
package pebbleengine
