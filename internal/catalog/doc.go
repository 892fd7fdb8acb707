// Package catalog loads the reference item catalog, fingerprints each
// reference image, and scores query fingerprints against the result.
//
// Entries come from a Source (a seeding manifest, the SQLite catalog store, or
// a static list in tests). A Loader resolves each entry to a Reference through
// an injected Cache, fetching and hashing the image on a miss with a bounded
// worker pool. Per-entry failures are reported in the LoadReport and never
// abort the batch. The Matcher then ranks references for one fingerprint.
package catalog
