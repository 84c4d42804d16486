// Package store defines the external contracts the query engine consumes
// (World, Payload, table lookup, tombstones, delta index) and supplies a
// reference in-memory implementation so the module is runnable end to
// end. Isolation, indexing, and persistence beyond the optional snapshot
// in store/snapshot are explicitly out of scope.
package store

// Field is one (name, value) pair of a Payload. Both sides are strings —
// the engine has no schema and no typed columns.
type Field struct {
	Name  string
	Value string
}

// Payload is one record instance belonging to a table. A base payload is
// never modified once created; mutation is expressed by a delta payload
// with the same (TableID, ID) key, or by tombstoning the key.
type Payload struct {
	TableID int
	ID      int64
	Placed  bool
	X       int
	Y       int
	IsDelta bool
	Fields  []Field
}

// World is the store contract the engine is given at query time. The
// engine never mutates it directly — DML flows through Insert/Update/Delete
// appliers, kept external to the read path.
type World interface {
	// TableNames returns table_id -> human name, indexed by TableID.
	TableNames() []string
	// FindTable resolves a table name to its id, byte-wise and
	// case-sensitively, or -1 if unknown.
	FindTable(name string) int
	// Payloads returns every payload currently known to the store (bases
	// and deltas alike); tombstones and shadowing are resolved by the
	// caller using Tombstones/DeltaIndex.
	Payloads() []Payload
	// Tombstones is the set of payload keys hidden from every query.
	Tombstones() map[int64]struct{}
	// DeltaIndex is the set of keys for which a delta payload exists,
	// used to shadow the corresponding base payload.
	DeltaIndex() map[int64]struct{}
	// DefaultLimit is the session's implicit LIMIT; -1 means unbounded.
	DefaultLimit() int
	// SetDefaultLimit updates the session's implicit LIMIT (SET LIMIT).
	SetDefaultLimit(n int)
}

// PayloadKey packs a (tableID, id) pair into the 64-bit key used by the
// tombstone set and delta index.
func PayloadKey(tableID int, id int64) int64 {
	return (int64(tableID) << 40) ^ id
}

// Mutable is the write-side contract the reference DML appliers need on
// top of World. Writes never touch an existing base Payload; they add or
// replace a delta, or add a tombstone.
type Mutable interface {
	World
	// InsertBase appends a brand-new base payload for tableID and returns
	// its freshly allocated id.
	InsertBase(tableID int, placed bool, x, y int, fields []Field) int64
	// ApplyDelta records a delta payload shadowing (tableID, id), replacing
	// any previous delta for the same key.
	ApplyDelta(tableID int, id int64, fields []Field)
	// Tombstone hides (tableID, id) from all future queries.
	Tombstone(tableID int, id int64)
}
