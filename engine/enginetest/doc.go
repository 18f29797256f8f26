// Package enginetest provides RunEngineTests, a conformance suite that any
// engine.Engine implementation should pass. Modeled on the teacher's
// lib/db/testing package: one exported entry point that fans out into
// t.Run subtests via a factory function, so both btreeengine and
// pebbleengine share one test body instead of duplicating it per package.
package enginetest
