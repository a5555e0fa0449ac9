// Package jsonldb provides a small generic JSONL-backed table.
//
// A [Table] keeps every row in memory and mirrors it to a JSON Lines file, one
// JSON document per line. Reads are served from memory; writes go to disk
// first and only update memory once the file is written. Replacing the whole
// table writes a temporary file and renames it over the old one so that a
// concurrent reader (or a file watcher) never sees a partial table.
//
// Tables are safe for concurrent use by multiple goroutines. [Table.Modify]
// holds the write lock for the entire read-modify-write cycle.
package jsonldb
