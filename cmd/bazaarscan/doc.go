// Command bazaarscan classifies item rows in game screenshots against a
// reference catalog and maintains that catalog's fingerprint cache.
package main
