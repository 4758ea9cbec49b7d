// Package records defines the back-office entities (companies and their
// authorized persons, payment accounts and official seals) and the
// repository contract the agents use to find and change them.
//
// Lookups by name compare NFC-normalized, trimmed strings so that Hangul
// typed on different platforms matches stored values.
package records
