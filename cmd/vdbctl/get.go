package main

import (
	"fmt"

	"github.com/ValentinKolb/vdb/revid"
	"github.com/ValentinKolb/vdb/store"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <docID>",
	Short: "print a document's current revision, or a specific one with --rev",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		doc, err := db.GetDocument([]byte(args[0]))
		if err != nil {
			return err
		}

		var cur *store.Revision
		if revStr, _ := cmd.Flags().GetString("rev"); revStr != "" {
			revID, err := revid.Parse(revStr)
			if err != nil {
				return err
			}
			cur, err = doc.SelectRevision(revID)
			if err != nil {
				return err
			}
		} else {
			cur = doc.Current()
			if cur == nil {
				return fmt.Errorf("document %q not found", args[0])
			}
		}

		body, err := db.ReadBody(doc, cur)
		if err != nil {
			return err
		}

		fmt.Printf("docID:     %s\n", doc.DocID())
		fmt.Printf("revID:     %s\n", cur.RevID())
		fmt.Printf("sequence:  %d\n", cur.Sequence())
		fmt.Printf("deleted:   %t\n", cur.IsDeleted())
		fmt.Printf("conflict:  %t\n", doc.Flags()&store.DocConflicted != 0)
		fmt.Printf("body:      %s\n", body)
		return nil
	},
}

func init() {
	getCmd.Flags().String("rev", "", wrapString("select a specific revID instead of the current one; 404s if absent"))
}
