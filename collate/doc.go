// Package collate implements a small bytewise-sortable codec — a
// Collatable encoding — for the tuples the expiry index needs to order:
// an array of (double, empty-map, string). The byte sequence Builder
// produces sorts, under plain bytes.Compare, identically to how Go would
// order the corresponding (float64, string) tuples: by timestamp first,
// then by docID.
//
// Grounded on CBForest's CollatableBuilder/CollatableReader usage in
// c4ExpiryEnumerator.cc (build: beginArray, write double, beginMap/endMap,
// endArray; read: skip array tag, read double, skip map, read string) —
// this package gives that shape a from-scratch, internally-consistent
// encode/decode pair rather than byte-compatibility with CBForest's own
// on-disk Collatable format.
package collate
