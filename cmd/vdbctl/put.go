package main

import (
	"fmt"

	"github.com/ValentinKolb/vdb/revid"
	"github.com/ValentinKolb/vdb/store"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <docID> <revID> <body>",
	Short: "insert a new revision of a document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		docID, revStr, body := args[0], args[1], args[2]
		newID, err := revid.Parse(revStr)
		if err != nil {
			return err
		}

		parentStr, _ := cmd.Flags().GetString("parent")
		deleted, _ := cmd.Flags().GetBool("deleted")
		allowConflict, _ := cmd.Flags().GetBool("allow-conflict")

		tx, err := db.BeginTransaction()
		if err != nil {
			return err
		}

		doc, err := db.GetDocument([]byte(docID))
		if err != nil {
			_ = tx.EndTransaction(false)
			return err
		}

		var parent *store.Revision
		if parentStr != "" {
			pid, err := revid.Parse(parentStr)
			if err != nil {
				_ = tx.EndTransaction(false)
				return err
			}
			p, err := doc.SelectRevision(pid)
			if err != nil {
				_ = tx.EndTransaction(false)
				return err
			}
			parent = p
		}

		rev, err := db.InsertRevision(doc, newID, []byte(body), deleted, false, parent, allowConflict)
		if err != nil {
			_ = tx.EndTransaction(false)
			return err
		}

		if err := db.SaveDocument(tx, doc); err != nil {
			_ = tx.EndTransaction(false)
			return err
		}
		if err := tx.EndTransaction(true); err != nil {
			return err
		}

		fmt.Printf("inserted %s (sequence %d)\n", rev.RevID(), rev.Sequence())
		return nil
	},
}

func init() {
	putCmd.Flags().String("parent", "", wrapString("revID of the parent revision, empty for a new root"))
	putCmd.Flags().Bool("deleted", false, wrapString("mark the new revision as a deletion tombstone"))
	putCmd.Flags().Bool("allow-conflict", false, wrapString("allow creating a conflicting branch"))
}
