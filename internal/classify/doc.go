// Package classify runs the full classification pipeline for one screenshot:
// segment, fingerprint, group, match against the catalog, resolve, and build
// the contract.
//
// Callers depend on the Strategy interface. Engine is the real
// implementation; Forced returns fixed contracts for exercising downstream
// handling of each outcome without touching scoring.
package classify
