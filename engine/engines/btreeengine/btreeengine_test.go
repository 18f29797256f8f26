package btreeengine

import (
	"testing"

	"github.com/ValentinKolb/vdb/engine"
	"github.com/ValentinKolb/vdb/engine/enginetest"
)

func TestBTreeEngine(t *testing.T) {
	enginetest.RunEngineTests(t, "btreeengine", func(dir string) engine.Engine {
		e, err := Open(dir, engine.DefaultOptions())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return e
	})
}
