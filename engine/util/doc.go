// Package util provides small supporting data structures shared by the
// engine and store packages:
//
//   - statistics: a SizeHistogram for estimating document-body size distribution
//   - functions: a random seed generator used by test fixtures that need
//     synthetic digests or jittered timing
//   - mapheap: a priority queue with key-based access, used by
//     store.VersionedDocument.Prune's nearest-leaf-distance sweep
package util
