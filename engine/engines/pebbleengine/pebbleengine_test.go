package pebbleengine

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/vdb/engine"
	"github.com/ValentinKolb/vdb/engine/enginetest"
)

func TestPebbleEngine(t *testing.T) {
	enginetest.RunEngineTests(t, "pebbleengine", func(dir string) engine.Engine {
		e, err := Open(filepath.Join(dir, "vdb.pebble"), engine.DefaultOptions())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return e
	})
}
