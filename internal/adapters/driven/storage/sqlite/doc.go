// Package sqlite persists archon's pipeline cache in <data dir>/cache/cache.db
// using modernc.org/sqlite, so the binary needs no cgo.
//
// The schema is applied from the migrations package on open. Entries carry an
// expiry and are dropped lazily when read or in bulk by PurgeExpired. Once
// the entry count passes the configured maximum, the least recently read
// entries are evicted first.
package sqlite
