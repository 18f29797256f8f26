package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/ValentinKolb/vdb/engine"
	"github.com/ValentinKolb/vdb/engine/util"
	"github.com/ValentinKolb/vdb/revid"
)

// inlineBodyThreshold is the largest body size stored alongside the
// document's metadata blob in the default store. Larger bodies are written
// to the overflow store keyed by (docID, sequence) and loaded on demand.
// Chosen to keep most JSON-ish documents inline while bounding how much of
// the default store's row size any one save() can add; spec §9 leaves the
// inline/overflow split point to the implementer.
const inlineBodyThreshold = 4096

// --------------------------------------------------------------------------
// DocFlags
// --------------------------------------------------------------------------

type DocFlags uint8

const (
	DocExists DocFlags = 1 << iota
	DocDeleted
	DocConflicted
	DocHasAttachments
)

// --------------------------------------------------------------------------
// VersionedDocument
// --------------------------------------------------------------------------

// VersionedDocument is the in-memory representation of one logical
// document: its id, a rev-tree of Revision nodes stored in a flat arena,
// aggregate flags, doc type, and a dirty bit. It borrows from the Database
// that constructed it and must not outlive it.
type VersionedDocument struct {
	docID     []byte
	revisions []*Revision // arena; index 0..n, parent stored as index
	current   int         // index of the winning revision, or noParent if empty
	flags     DocFlags
	docType   []byte
	dirty     bool
	store     string // default KeyStore name this document lives in
}

// newDocument constructs an empty, non-existent VersionedDocument for docID.
func newDocument(store string, docID []byte) *VersionedDocument {
	return &VersionedDocument{
		docID:   append([]byte(nil), docID...),
		current: noParent,
		store:   store,
	}
}

func (d *VersionedDocument) DocID() []byte { return d.docID }

func (d *VersionedDocument) Flags() DocFlags { return d.flags }

func (d *VersionedDocument) DocType() []byte { return d.docType }

func (d *VersionedDocument) SetDocType(t []byte) {
	d.docType = append([]byte(nil), t...)
	d.dirty = true
}

func (d *VersionedDocument) IsDirty() bool { return d.dirty }

// Current returns the winning revision, or nil if the document has no
// revisions at all.
func (d *VersionedDocument) Current() *Revision {
	if d.current == noParent {
		return nil
	}
	return d.revisions[d.current]
}

// RevID returns the current revision's id, or the zero RevID if none.
func (d *VersionedDocument) RevID() revid.RevID {
	if cur := d.Current(); cur != nil {
		return cur.id
	}
	return revid.RevID{}
}

// Get looks up a revision by id. Returns (nil, false) if absent.
func (d *VersionedDocument) Get(id revid.RevID) (*Revision, bool) {
	for _, r := range d.revisions {
		if r.id.Equal(id) {
			return r, true
		}
	}
	return nil, false
}

// SelectRevision looks up a specific revision by id, the way a caller
// selecting a revision to read or branch from would. Unlike Get, absence
// is reported as a structured 404 rather than a bare bool, per
// SPEC_FULL.md's supplemented "404 on missing selected revision" feature.
func (d *VersionedDocument) SelectRevision(id revid.RevID) (*Revision, error) {
	r, ok := d.Get(id)
	if !ok {
		return nil, ErrRevisionNotFound("revision " + id.String() + " not found in document " + string(d.docID))
	}
	return r, nil
}

// First returns the first revision in pre-order (the arena's root), or nil
// for an empty document. Combined with Revision.Next it drives a full
// traversal.
func (d *VersionedDocument) First() *Revision {
	if len(d.revisions) == 0 {
		return nil
	}
	return d.revisions[0]
}

// --------------------------------------------------------------------------
// Winner selection
// --------------------------------------------------------------------------

// recompute reselects the winning leaf and recomputes aggregate flags.
// Ordering among leaves: non-deleted before deleted; then higher
// generation; then lexicographically larger digest.
func (d *VersionedDocument) recompute() {
	best := -1
	nonDeletedLeaves := 0
	hasAttachments := false
	for i, r := range d.revisions {
		if !r.IsLeaf() {
			continue
		}
		if !r.IsDeleted() {
			nonDeletedLeaves++
		}
		if r.HasAttachments() {
			hasAttachments = true
		}
		if best == -1 || leafBetter(r, d.revisions[best]) {
			best = i
		}
	}
	d.current = best

	d.flags = 0
	if len(d.revisions) > 0 {
		d.flags |= DocExists
	}
	if cur := d.Current(); cur != nil && cur.IsDeleted() {
		d.flags |= DocDeleted
	}
	if nonDeletedLeaves > 1 {
		d.flags |= DocConflicted
	}
	if hasAttachments {
		d.flags |= DocHasAttachments
	}
}

// leafBetter reports whether a should win over b under the tie-break order.
func leafBetter(a, b *Revision) bool {
	aDel, bDel := a.IsDeleted(), b.IsDeleted()
	if aDel != bDel {
		return !aDel // non-deleted wins
	}
	if a.id.Generation() != b.id.Generation() {
		return a.id.Generation() > b.id.Generation()
	}
	return bytes.Compare(a.id.Digest(), b.id.Digest()) > 0
}

// --------------------------------------------------------------------------
// insert
// --------------------------------------------------------------------------

// Insert implements spec §4.3's insert(): append newID as a child of
// parent (nil for a new root), honoring idempotence, conflict and
// generation rules. overflow resolves the duplicate-revID idempotency
// check's body comparison against the overflow store: after a document has
// been saved and reloaded, a non-winner revision or an overflowed winner
// has no in-memory body, and comparing against InlineBody() directly would
// spuriously conflict with a legitimate idempotent re-insert. Pass nil only
// when every revision in d is certain to still be in memory (sequence 0,
// i.e. never saved).
func (d *VersionedDocument) Insert(newID revid.RevID, body []byte, deleted, hasAttachments bool, parent *Revision, allowConflict bool, overflow storeReader) (*Revision, error) {
	if existing, ok := d.Get(newID); ok {
		existingBody, err := d.ReadBody(existing, overflow)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(existingBody, body) {
			return nil, ErrConflict("revision " + newID.String() + " already exists with a different body")
		}
		return existing, nil
	}

	if parent == nil {
		if cur := d.Current(); cur != nil && !cur.IsDeleted() && !allowConflict {
			return nil, ErrConflict("document already has a current revision; allowConflict required to create a new root")
		}
	} else {
		if parent.doc != d {
			return nil, ErrBadRequest("parent revision does not belong to this document")
		}
		if !parent.IsLeaf() && !allowConflict {
			return nil, ErrConflict("parent revision is not a leaf")
		}
		if parent.id.Generation()+1 != newID.Generation() {
			return nil, ErrBadRequest("new revision's generation must be parent's generation + 1")
		}
	}

	parentIdx := noParent
	if parent != nil {
		parentIdx = parent.index
		parent.flags &^= flagLeaf
	}

	flags := flagLeaf | flagNew
	if deleted {
		flags |= flagDeleted
	}
	if hasAttachments {
		flags |= flagHasAttachments
	}

	rev := &Revision{
		id:     newID,
		flags:  flags,
		parent: parentIdx,
		body:   append([]byte(nil), body...),
		doc:    d,
		index:  len(d.revisions),
	}
	d.revisions = append(d.revisions, rev)
	d.dirty = true
	d.recompute()
	return rev, nil
}

// --------------------------------------------------------------------------
// insertHistory
// --------------------------------------------------------------------------

// InsertHistory implements spec §4.3's insertHistory(): history is ordered
// newest-to-oldest. Returns the index of the common ancestor within
// history, or an error mapped to HTTP 400 for malformed/non-monotone
// input.
func (d *VersionedDocument) InsertHistory(history []revid.RevID, body []byte, deleted, hasAttachments bool) (int, error) {
	if len(history) == 0 {
		return -1, ErrBadRequest("history must not be empty")
	}
	for i := 1; i < len(history); i++ {
		if history[i].Generation() >= history[i-1].Generation() {
			return -1, ErrBadRequest("history must strictly decrease in generation")
		}
	}

	ancestorPos := len(history)
	var ancestor *Revision
	for i, id := range history {
		if r, ok := d.Get(id); ok {
			ancestorPos = i
			ancestor = r
			break
		}
	}

	parentIdx := noParent
	if ancestor != nil {
		parentIdx = ancestor.index
	}

	// Graft history[ancestorPos-1 .. 0] as a chain, oldest-first, above
	// the ancestor (or as a fresh root chain if ancestorPos == len(history)).
	for i := ancestorPos - 1; i >= 0; i-- {
		flags := flagNew
		if i == 0 {
			flags |= flagLeaf
			if deleted {
				flags |= flagDeleted
			}
			if hasAttachments {
				flags |= flagHasAttachments
			}
		}
		var nodeBody []byte
		if i == 0 {
			nodeBody = append([]byte(nil), body...)
		}
		rev := &Revision{
			id:     history[i],
			flags:  flags,
			parent: parentIdx,
			body:   nodeBody,
			doc:    d,
			index:  len(d.revisions),
		}
		d.revisions = append(d.revisions, rev)
		parentIdx = rev.index
	}
	if ancestor != nil && ancestorPos > 0 {
		ancestor.flags &^= flagLeaf
	}

	d.dirty = true
	d.recompute()
	return ancestorPos, nil
}

// --------------------------------------------------------------------------
// prune
// --------------------------------------------------------------------------

// Prune implements spec §4.3's prune(maxDepth): for each leaf, walk
// ancestry; nodes whose distance to the nearest leaf exceeds maxDepth-1 are
// removed. Pruning never removes a leaf, and survivors are reparented to
// the nearest retained ancestor.
func (d *VersionedDocument) Prune(maxDepth int) {
	if maxDepth <= 0 || len(d.revisions) == 0 {
		return
	}

	// distance[i] = shortest distance from revisions[i] to the nearest leaf
	// in its subtree. Every leaf is seeded at distance 0 and relaxed toward
	// the root via a MapHeap-driven multi-source shortest-path sweep (see
	// engine/util.MapHeap's doc comment for the role it plays here).
	const unvisited = -1
	distance := make([]int, len(d.revisions))
	for i := range distance {
		distance[i] = unvisited
	}
	frontier := util.NewMapHeap()
	for i, r := range d.revisions {
		if r.IsLeaf() {
			distance[i] = 0
			frontier.AddItem(uint64(i), 0)
		}
	}
	for frontier.Len() > 0 {
		node, _ := frontier.Peek()
		i, dist := int(node.Key), int(node.Priority)
		frontier.RemoveByKey(node.Key)
		r := d.revisions[i]
		if r.parent == noParent {
			continue
		}
		if nd := dist + 1; distance[r.parent] == unvisited || nd < distance[r.parent] {
			distance[r.parent] = nd
			frontier.AddItem(uint64(r.parent), uint64(nd))
		}
	}

	keep := make([]bool, len(d.revisions))
	for i, r := range d.revisions {
		if r.IsLeaf() || distance[i] <= maxDepth-1 {
			keep[i] = true
		}
	}

	// Reparent survivors to the nearest retained ancestor before
	// compacting the arena.
	nearestKeptAncestor := func(idx int) int {
		for idx != noParent && !keep[idx] {
			idx = d.revisions[idx].parent
		}
		return idx
	}
	for i, r := range d.revisions {
		if keep[i] && r.parent != noParent && !keep[r.parent] {
			r.parent = nearestKeptAncestor(r.parent)
		}
	}

	d.compact(keep)
}

// compact rebuilds the arena keeping only the indices marked true, fixing
// up every parent/index reference.
func (d *VersionedDocument) compact(keep []bool) {
	remap := make([]int, len(d.revisions))
	kept := make([]*Revision, 0, len(d.revisions))
	for i, r := range d.revisions {
		if !keep[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, r)
	}
	for _, r := range kept {
		if r.parent != noParent {
			r.parent = remap[r.parent]
		}
	}
	for newIdx, r := range kept {
		r.index = newIdx
	}
	d.revisions = kept
	d.recompute()
}

// --------------------------------------------------------------------------
// save
// --------------------------------------------------------------------------

// metaBlob is the gob-serialized shape of the rev-tree, grounded on the
// teacher's rpc/serializer/gobimpl.go encoder/decoder pattern. It is the
// "opaque metadata blob" spec.md §3 describes.
type metaBlob struct {
	DocType   []byte
	Revisions []metaRevision
}

type metaRevision struct {
	ID       []byte // binary RevID
	Flags    revFlags
	Sequence uint64
	Parent   int
}

// Save implements spec §4.3's save(): idempotent if clean. Assigns
// sequence numbers to new revisions (burning one via writer.NextSequence
// for every new revision but the winner, and a real writer.Set for the
// winner, so that lastSequence jumps by exactly the number of revisions
// persisted per spec §8), serializes the rev-tree, writes overflow bodies
// for non-winner new revisions, and clears New flags.
func (d *VersionedDocument) Save(w engine.Writer, overflowStore storeWriter) error {
	if !d.dirty {
		return nil
	}

	winner := d.Current()
	var newRevs []*Revision
	for _, r := range d.revisions {
		if r.IsNew() && r != winner {
			newRevs = append(newRevs, r)
		}
	}

	for _, r := range newRevs {
		seq, err := w.NextSequence()
		if err != nil {
			return ErrEngine(err, "assign sequence")
		}
		r.sequence = seq
		if len(r.body) > 0 {
			if _, err := overflowStore.Set(overflowKey(d.docID, seq), nil, r.body); err != nil {
				return ErrEngine(err, "write overflow body")
			}
		}
	}

	meta, err := encodeMeta(d)
	if err != nil {
		return ErrEngine(err, "encode document metadata")
	}

	var inline []byte
	if winner != nil {
		if len(winner.body) <= inlineBodyThreshold {
			inline = winner.body
		}
	}

	seq, err := w.Set(d.docID, meta, inline)
	if err != nil {
		return ErrEngine(err, "write document record")
	}
	if winner != nil {
		winner.sequence = seq
		if inline == nil && len(winner.body) > 0 {
			if _, err := overflowStore.Set(overflowKey(d.docID, seq), nil, winner.body); err != nil {
				return ErrEngine(err, "write overflow body")
			}
		}
	}

	for _, r := range d.revisions {
		r.flags &^= flagNew
	}
	d.dirty = false
	return nil
}

// storeWriter is the minimal surface Save needs from a secondary store
// writer, satisfied by engine.Writer.
type storeWriter interface {
	Set(key, meta, body []byte) (uint64, error)
}

func overflowKey(docID []byte, seq uint64) []byte {
	buf := make([]byte, len(docID)+binary.MaxVarintLen64)
	n := copy(buf, docID)
	n += binary.PutUvarint(buf[n:], seq)
	return buf[:n]
}

func encodeMeta(d *VersionedDocument) ([]byte, error) {
	blob := metaBlob{DocType: d.docType}
	for _, r := range d.revisions {
		blob.Revisions = append(blob.Revisions, metaRevision{
			ID:       r.id.Bytes(),
			Flags:    r.flags,
			Sequence: r.sequence,
			Parent:   r.parent,
		})
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeDocument reconstructs a VersionedDocument from a stored (meta,
// inline body) pair, belonging to store and identified by docID.
func decodeDocument(store string, docID, meta, inlineBody []byte) (*VersionedDocument, error) {
	d := newDocument(store, docID)
	if len(meta) == 0 {
		return d, nil
	}

	var blob metaBlob
	if err := gob.NewDecoder(bytes.NewReader(meta)).Decode(&blob); err != nil {
		return nil, ErrEngine(err, "decode document metadata")
	}
	d.docType = blob.DocType
	d.revisions = make([]*Revision, len(blob.Revisions))
	for i, mr := range blob.Revisions {
		id, err := revid.ParseBinary(mr.ID)
		if err != nil {
			return nil, ErrEngine(err, "decode revision id")
		}
		d.revisions[i] = &Revision{
			id:       id,
			flags:    mr.Flags,
			sequence: mr.Sequence,
			parent:   mr.Parent,
			doc:      d,
			index:    i,
		}
	}
	d.recompute()
	if winner := d.Current(); winner != nil {
		winner.body = inlineBody
	}
	return d, nil
}

// ReadBody returns r's body, loading it from the overflow store if it is
// not held inline. A revision that was saved (sequence != 0) but whose
// overflow entry is absent has been compacted away or pruned and is
// surfaced as Gone, never NotFound, per spec §9.
func (d *VersionedDocument) ReadBody(r *Revision, overflow storeReader) ([]byte, error) {
	if r.body != nil {
		return r.body, nil
	}
	if r.sequence == 0 {
		return nil, nil
	}
	rec, err := overflow.Get(overflowKey(d.docID, r.sequence))
	if err == engine.ErrNotFound {
		return nil, ErrGone("revision body " + r.id.String() + " is no longer available")
	}
	if err != nil {
		return nil, ErrEngine(err, "read overflow body")
	}
	return rec.Body, nil
}

type storeReader interface {
	Get(key []byte) (engine.Record, error)
}
