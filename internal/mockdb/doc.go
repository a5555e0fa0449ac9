// Package mockdb is an in-process stand-in for a hosted relational database.
//
// # Overview
//
// A [Store] owns a set of named tables, each an ordered slice of [Record]
// values seeded from an embedded fixture. Callers describe a read or a write
// with a fluent [Builder]:
//
//	res, err := store.From("posts").
//		Select("*", mockdb.WithCount()).
//		Eq("category_id", 1).
//		Order("created_at", false).
//		Range(0, 4).
//		Exec(ctx)
//
// The builder only accumulates a plain [Query] value. Nothing happens until
// [Builder.Exec] hands it to [Store.Execute], which loads the working set,
// filters, sorts, applies the pending mutation, attaches joined relations,
// counts, slices the requested range and shapes the result.
//
// # Builders are single use
//
// Executing the same builder twice repeats its mutation. An insert builder
// executed twice inserts twice.
//
// # The comments table
//
// Comments live in durable local storage (see package localstore) under the
// key [localstore.KeyComments]. They are re-read on every execution and
// written back after every mutation, so two processes sharing a file or a
// Redis server see each other's comments. Writes are last-write-wins.
//
// # Joins
//
// When [Builder.Select] was called, rows of three tables get denormalized
// relations computed from the store's current contents:
//
//   - posts: "profiles" (author) and "categories".
//   - categories: "posts" as [{"count": n}].
//   - comments: "profiles", or a synthesized guest profile.
//
// A missing foreign key yields a nil relation, never an error.
package mockdb
