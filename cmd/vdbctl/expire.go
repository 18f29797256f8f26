package main

import (
	"fmt"

	"github.com/ValentinKolb/vdb/store"
	"github.com/spf13/cobra"
)

var expirePurgeCmd = &cobra.Command{
	Use:   "expire-purge",
	Short: "purge expiry entries at or before a given unix timestamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		now, _ := cmd.Flags().GetFloat64("now")

		enum, err := db.NewExpiryEnumerator(now)
		if err != nil {
			return err
		}
		defer enum.Close()

		var entries []store.ExpiryEntry
		for enum.Next() {
			entries = append(entries, store.ExpiryEntry{
				Key:   append([]byte(nil), enum.Key()...),
				DocID: enum.DocID(),
			})
		}
		if err := enum.Err(); err != nil {
			return err
		}

		if err := db.Purge(entries); err != nil {
			return err
		}

		fmt.Printf("purged %d expiry entries\n", len(entries))
		return nil
	},
}

func init() {
	expirePurgeCmd.Flags().Float64("now", 0, wrapString("unix timestamp (seconds) to purge up to"))
}
