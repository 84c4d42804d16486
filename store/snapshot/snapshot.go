// Package snapshot persists a store.World's payload vector to MongoDB
// and restores it on the next process start: each payload's field list
// is wire-encoded into a compact blob and upserted keyed on
// table_id/id/is_delta.
package snapshot

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kruemmel-python/worldsql/store"
	"github.com/kruemmel-python/worldsql/wire"
)

// Store saves and restores payloads through one Mongo collection.
type Store struct {
	coll *mongo.Collection
}

// New wraps an existing collection (typically "worldsql_payloads").
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

type payloadDoc struct {
	TableID int    `bson:"table_id"`
	ID      int64  `bson:"id"`
	Placed  bool   `bson:"placed"`
	X       int    `bson:"x"`
	Y       int    `bson:"y"`
	IsDelta bool   `bson:"is_delta"`
	Fields  []byte `bson:"fields"`
}

// Save upserts every payload in w into the collection, keyed by
// (table_id, id, is_delta) so a base and its shadowing delta coexist.
// Field lists are wire-encoded (one pseudo-row of {name->value} pairs)
// rather than stored as a raw bson map, so the same compact encoding
// serves both the cache and the snapshot store.
func (s *Store) Save(ctx context.Context, w store.World) error {
	for _, p := range w.Payloads() {
		cols := make([]string, len(p.Fields))
		vals := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			cols[i] = f.Name
			vals[i] = f.Value
		}
		doc := payloadDoc{
			TableID: p.TableID,
			ID:      p.ID,
			Placed:  p.Placed,
			X:       p.X,
			Y:       p.Y,
			IsDelta: p.IsDelta,
			Fields:  wire.Encode(cols, [][]string{vals}),
		}
		filter := bson.M{"table_id": p.TableID, "id": p.ID, "is_delta": p.IsDelta}
		opts := options.Replace().SetUpsert(true)
		if _, err := s.coll.ReplaceOne(ctx, filter, doc, opts); err != nil {
			return fmt.Errorf("snapshot: save payload %d/%d: %w", p.TableID, p.ID, err)
		}
	}
	return nil
}

// Load reads every payload document back, in arbitrary Mongo cursor
// order — callers should feed the result to MemWorld.LoadPayloads, which
// doesn't depend on ordering.
func (s *Store) Load(ctx context.Context) ([]store.Payload, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("snapshot: find: %w", err)
	}
	defer cursor.Close(ctx)

	var payloads []store.Payload
	for cursor.Next(ctx) {
		var doc payloadDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("snapshot: decode: %w", err)
		}
		cols, rows, err := wire.Decode(doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode fields: %w", err)
		}
		var fields []store.Field
		if len(rows) > 0 {
			vals := rows[0]
			for i, name := range cols {
				if i < len(vals) {
					fields = append(fields, store.Field{Name: name, Value: vals[i]})
				}
			}
		}
		payloads = append(payloads, store.Payload{
			TableID: doc.TableID,
			ID:      doc.ID,
			Placed:  doc.Placed,
			X:       doc.X,
			Y:       doc.Y,
			IsDelta: doc.IsDelta,
			Fields:  fields,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: cursor: %w", err)
	}
	return payloads, nil
}
