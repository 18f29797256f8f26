package store

import "github.com/ValentinKolb/vdb/revid"

// --------------------------------------------------------------------------
// Revision flags
// --------------------------------------------------------------------------

type revFlags uint8

const (
	flagDeleted        revFlags = 1 << iota // tombstone: this revision represents a deletion
	flagLeaf                                // no other revision has this one as parent
	flagNew                                 // created since the last save, not yet assigned a sequence
	flagHasAttachments                      // carries attachment references (opaque to this package)
)

// --------------------------------------------------------------------------
// Revision
// --------------------------------------------------------------------------

// Revision is one node of a document's history. It is owned by the
// VersionedDocument that created it; callers receive non-owning cursors
// (*Revision values borrowed from the tree, never copied out of it) and
// must not retain them past the owning VersionedDocument's lifetime.
//
// parent is stored as an index into the owning VersionedDocument's revisions
// slice rather than a pointer, per the arena design this package follows for
// its rev-tree (see package doc and spec's design notes on avoiding cyclic
// ownership during grafting and pruning).
type Revision struct {
	id       revid.RevID
	flags    revFlags
	sequence uint64
	parent   int // index into doc.revisions, or noParent for a root
	body     []byte
	doc      *VersionedDocument
	index    int // this revision's own index into doc.revisions
}

const noParent = -1

func (r *Revision) RevID() revid.RevID { return r.id }

func (r *Revision) Sequence() uint64 { return r.sequence }

func (r *Revision) IsLeaf() bool { return r.flags&flagLeaf != 0 }

func (r *Revision) IsDeleted() bool { return r.flags&flagDeleted != 0 }

func (r *Revision) IsNew() bool { return r.flags&flagNew != 0 }

func (r *Revision) HasAttachments() bool { return r.flags&flagHasAttachments != 0 }

// Parent returns the parent Revision, or nil if r is a root.
func (r *Revision) Parent() *Revision {
	if r.parent == noParent {
		return nil
	}
	return r.doc.revisions[r.parent]
}

// InlineBody returns the body bytes held in memory for r, if any, without
// touching the engine. It is populated for new, not-yet-saved revisions and
// for the current winner after VersionedDocument load. A nil result does
// not mean the body is absent — see VersionedDocument.ReadBody.
func (r *Revision) InlineBody() []byte {
	return r.body
}

// Next implements spec §4.3's revision traversal: depth-first pre-order,
// children before siblings, ordered by insertion within each level. Arena
// index order alone is only pre-order for a chain; a branch followed by a
// further insert on an earlier branch (root -> aa, bb under aa, cc under
// aa, then dd under bb) appends dd *after* cc even though pre-order visits
// it first, so Next walks parent/child links rather than just r.index+1.
// Stable across inserts that happen strictly between calls to a fresh
// traversal; callers must not mutate the tree mid-traversal.
func (r *Revision) Next() *Revision {
	doc := r.doc
	if child := doc.firstChild(r.index); child != nil {
		return child
	}
	node := r
	for {
		if sib := doc.nextSibling(node.parent, node.index); sib != nil {
			return sib
		}
		if node.parent == noParent {
			return nil
		}
		node = doc.revisions[node.parent]
	}
}

// firstChild returns the lowest-index revision whose parent is parentIdx,
// or nil if it has no children.
func (d *VersionedDocument) firstChild(parentIdx int) *Revision {
	var best *Revision
	for _, r := range d.revisions {
		if r.parent == parentIdx && (best == nil || r.index < best.index) {
			best = r
		}
	}
	return best
}

// nextSibling returns the lowest-index revision whose parent is parentIdx
// and whose index is greater than afterIdx, or nil if none remain.
func (d *VersionedDocument) nextSibling(parentIdx, afterIdx int) *Revision {
	var best *Revision
	for _, r := range d.revisions {
		if r.parent == parentIdx && r.index > afterIdx && (best == nil || r.index < best.index) {
			best = r
		}
	}
	return best
}

// SelectNextLeaf advances Next until a leaf matching the deletion filter is
// found, or returns nil.
func (r *Revision) SelectNextLeaf(includeDeleted bool) *Revision {
	cur := r.Next()
	for cur != nil {
		if cur.IsLeaf() && (includeDeleted || !cur.IsDeleted()) {
			return cur
		}
		cur = cur.Next()
	}
	return nil
}
