// Package journal records build runs in a SQLite database so "audiopack
// history" can show what recent builds did.
//
// The journal is advisory: a build never fails because the journal cannot be
// written. The schema is versioned; a mismatch asks the operator to delete
// the database file.
package journal
