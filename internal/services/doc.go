// Package services defines shared utilities consumed by the classification
// pipeline and its catalog integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation IDs and component names
//     for logging.
//   - Structured error markers plus the Wrap helper, so callers can tell an
//     unusable screenshot (ErrInvalidImage, ErrInvalidRegion) from a broken
//     catalog listing (ErrCatalogQueryFailed) or a single unreachable reference
//     image (ErrCatalogFetchFailed) with errors.Is.
//
// An ambiguous classification is never reported through these markers; it is
// a contract status.
package services
