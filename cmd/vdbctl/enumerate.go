package main

import (
	"fmt"

	"github.com/ValentinKolb/vdb/store"
	"github.com/spf13/cobra"
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate",
	Short: "list documents in the default store by key range",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		descending, _ := cmd.Flags().GetBool("descending")
		includeDeleted, _ := cmd.Flags().GetBool("include-deleted")

		var startKey, endKey []byte
		if start != "" {
			startKey = []byte(start)
		}
		if end != "" {
			endKey = []byte(end)
		}

		enum, err := db.ByKeyRange(startKey, endKey, store.DocEnumeratorOptions{
			Descending:     descending,
			IncludeDeleted: includeDeleted,
			MetaOnly:       true,
		})
		if err != nil {
			return err
		}
		defer enum.Close()

		for enum.Next() {
			doc := enum.Document()
			fmt.Printf("%s\t%s\n", doc.DocID(), doc.RevID())
		}
		return enum.Err()
	},
}

func init() {
	enumerateCmd.Flags().String("start", "", wrapString("start key, empty means from the beginning"))
	enumerateCmd.Flags().String("end", "", wrapString("end key, empty means to the end"))
	enumerateCmd.Flags().Bool("descending", false, wrapString("iterate in descending key order"))
	enumerateCmd.Flags().Bool("include-deleted", false, wrapString("include documents whose current revision is deleted"))
}
