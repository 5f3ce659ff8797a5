// Package ingest parses heterogeneous spreadsheet exports into normalized
// records. It owns the canonical field dictionary, the two-pass fuzzy header
// resolver, the per-type value normalizers, a lenient CSV parser, and the
// xlsx reader, along with the upload-fatal error taxonomy.
//
// The pipeline never trusts source headers or value encodings: everything is
// resolved against the dictionary and converted to canonical numeric or date
// forms before it reaches the history store.
package ingest
