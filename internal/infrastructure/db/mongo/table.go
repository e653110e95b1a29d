package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// Table is a remote table backed by one collection. Documents use the
// record's id as _id and the wire field names as keys.
type Table[T any] struct {
	coll *mongo.Collection
}

func NewTable[T any](db *mongo.Database, name string) *Table[T] {
	return &Table[T]{coll: db.Collection(name)}
}

func (t *Table[T]) SelectAll(ctx context.Context) ([]T, error) {
	cur, err := t.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.coll.Name(), err)
	}
	rows := []T{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.coll.Name(), err)
	}
	return rows, nil
}

func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := t.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("get %s/%s: %w", t.coll.Name(), id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", t.coll.Name(), id, err)
	}
	return &rec, nil
}

func (t *Table[T]) Insert(ctx context.Context, rec T) (*T, error) {
	res, err := t.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("insert %s: %w", t.coll.Name(), domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert %s: %w", t.coll.Name(), err)
	}

	// fetch back to return the stored representation
	id, ok := res.InsertedID.(string)
	if !ok {
		return nil, fmt.Errorf("insert %s: unexpected id type %T", t.coll.Name(), res.InsertedID)
	}
	return t.Get(ctx, id)
}

func (t *Table[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	set := bson.M{}
	for k, v := range fields {
		if k == "id" || k == "_id" {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return t.Get(ctx, id)
	}

	var rec T
	err := t.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("update %s/%s: %w", t.coll.Name(), id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update %s/%s: %w", t.coll.Name(), id, err)
	}
	return &rec, nil
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	res, err := t.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s/%s: %w", t.coll.Name(), id, domain.ErrNotFound)
	}
	return nil
}
