// Package contract assembles the versioned classification contract returned
// to callers.
//
// Status is derived only from the shape of the candidate lists: no
// candidates is no_matches, any detection unit holding more than one
// candidate is ambiguous, anything else with a candidate is matches. The
// disabled status is produced explicitly by Disabled. Evidence signals and
// notes are sorted canonically so the same facts always serialize to the
// same bytes regardless of the order they were recorded in.
package contract
