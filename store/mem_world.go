package store

import "sync"

// MemWorld is a reference in-memory World. It is the default host for
// cmd/worldsql and for the engine's own tests; a larger deployment can
// supply its own World backed by a different substrate.
type MemWorld struct {
	mu sync.RWMutex

	tables      []string
	tableByName map[string]int
	payloads    []Payload
	tombstones  map[int64]struct{}
	deltas      map[int64]struct{}
	nextID      int64
	defaultLim  int
}

// NewMemWorld builds an empty store with the given table names. Table ids
// are assigned by position, matching the order names are given in.
func NewMemWorld(tables ...string) *MemWorld {
	w := &MemWorld{
		tables:      append([]string(nil), tables...),
		tableByName: make(map[string]int, len(tables)),
		tombstones:  make(map[int64]struct{}),
		deltas:      make(map[int64]struct{}),
		defaultLim:  -1,
	}
	for i, t := range tables {
		w.tableByName[t] = i
	}
	return w
}

func (w *MemWorld) TableNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.tables...)
}

func (w *MemWorld) FindTable(name string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id, ok := w.tableByName[name]; ok {
		return id
	}
	return -1
}

func (w *MemWorld) Payloads() []Payload {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Payload(nil), w.payloads...)
}

func (w *MemWorld) Tombstones() map[int64]struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[int64]struct{}, len(w.tombstones))
	for k := range w.tombstones {
		out[k] = struct{}{}
	}
	return out
}

func (w *MemWorld) DeltaIndex() map[int64]struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[int64]struct{}, len(w.deltas))
	for k := range w.deltas {
		out[k] = struct{}{}
	}
	return out
}

func (w *MemWorld) DefaultLimit() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.defaultLim
}

func (w *MemWorld) SetDefaultLimit(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.defaultLim = n
}

// InsertBase adds a base (non-delta) payload, auto-assigning an id, and
// returns the id. Used by seed data and by ApplyInsertSQL.
func (w *MemWorld) InsertBase(tableID int, placed bool, x, y int, fields []Field) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.payloads = append(w.payloads, Payload{
		TableID: tableID,
		ID:      id,
		Placed:  placed,
		X:       x,
		Y:       y,
		Fields:  fields,
	})
	return id
}

// ApplyDelta records a delta payload shadowing (tableID, id), replacing
// any previous delta for the same key.
func (w *MemWorld) ApplyDelta(tableID int, id int64, fields []Field) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := PayloadKey(tableID, id)
	for i := range w.payloads {
		p := &w.payloads[i]
		if p.TableID == tableID && p.ID == id && p.IsDelta {
			p.Fields = fields
			w.deltas[key] = struct{}{}
			return
		}
	}
	w.payloads = append(w.payloads, Payload{
		TableID: tableID,
		ID:      id,
		IsDelta: true,
		Fields:  fields,
	})
	w.deltas[key] = struct{}{}
}

// Tombstone hides (tableID, id) from all future queries.
func (w *MemWorld) Tombstone(tableID int, id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tombstones[PayloadKey(tableID, id)] = struct{}{}
}

// LoadPayloads replaces the store's payload vector wholesale — used by
// store/snapshot to restore a prior save. It rebuilds the delta index
// from each payload's IsDelta flag and advances nextID past the highest
// id seen so future inserts never collide with restored ones.
func (w *MemWorld) LoadPayloads(payloads []Payload) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.payloads = append([]Payload(nil), payloads...)
	w.deltas = make(map[int64]struct{})
	for _, p := range payloads {
		if p.IsDelta {
			w.deltas[PayloadKey(p.TableID, p.ID)] = struct{}{}
		}
		if p.ID > w.nextID {
			w.nextID = p.ID
		}
	}
}

// LoadTombstones replaces the tombstone set, used alongside LoadPayloads
// when restoring a snapshot.
func (w *MemWorld) LoadTombstones(keys []int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tombstones = make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		w.tombstones[k] = struct{}{}
	}
}
