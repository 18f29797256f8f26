package main

import (
	"fmt"
	"path/filepath"

	"github.com/ValentinKolb/vdb/engine"
	"github.com/ValentinKolb/vdb/engine/engines/btreeengine"
	"github.com/ValentinKolb/vdb/engine/engines/pebbleengine"
	"github.com/ValentinKolb/vdb/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// openFromFlags binds cmd's flags into viper and opens a Database using the
// resolved --path/--engine/--readonly configuration.
func openFromFlags(cmd *cobra.Command) (*store.Database, error) {
	if err := bindCommandFlags(cmd.Root()); err != nil {
		return nil, err
	}

	path := viper.GetString("path")
	readOnly := viper.GetBool("readonly")

	var factory engine.Factory
	switch viper.GetString("engine") {
	case "memory":
		factory = btreeengine.Open
	case "pebble":
		factory = pebbleengine.Open
		path = filepath.Clean(path)
	default:
		return nil, fmt.Errorf("unknown engine %q", viper.GetString("engine"))
	}

	return store.Open(factory, path, readOnly)
}
