// Package revid implements RevID, the canonical revision identifier used
// throughout the store package's rev-tree. A RevID is immutable once
// parsed and orders first by generation, then lexicographically by digest.
package revid
