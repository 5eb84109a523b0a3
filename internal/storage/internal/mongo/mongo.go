// Package mongo implements the MongoDB storage backend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/facetbase/facetd/internal/storage/config"
	"github.com/facetbase/facetd/internal/storage/types"
	"github.com/facetbase/facetd/pkg/model"
)

type backend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to MongoDB and returns a backend over the configured collection.
func New(ctx context.Context, cfg config.MongoConfig) (types.Backend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	b := &backend{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := b.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return b, nil
}

func (b *backend) ensureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "doc_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (b *backend) Get(ctx context.Context, collection, docID string) (*types.Document, error) {
	var doc types.Document
	err := b.coll.FindOne(ctx, bson.M{"_id": types.CalculateID(collection, docID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.WrapError(err)
	}
	return &doc, nil
}

func (b *backend) Put(ctx context.Context, doc *types.Document) error {
	now := time.Now().UnixMilli()
	update := bson.M{
		"$set": bson.M{
			"doc_id":     doc.DocID,
			"collection": doc.Collection,
			"data":       doc.Data,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
		"$inc": bson.M{
			"version": 1,
		},
	}
	_, err := b.coll.UpdateOne(ctx, bson.M{"_id": doc.Id}, update, options.Update().SetUpsert(true))
	return model.WrapError(err)
}

func (b *backend) Delete(ctx context.Context, collection, docID string) error {
	result, err := b.coll.DeleteOne(ctx, bson.M{"_id": types.CalculateID(collection, docID)})
	if err != nil {
		return model.WrapError(err)
	}
	if result.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (b *backend) Query(ctx context.Context, q model.Query) ([]*types.Document, error) {
	filter, err := makeFilterBSON(q.Filters)
	if err != nil {
		return nil, err
	}
	filter["collection"] = q.Collection

	findOptions := options.Find()
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		findOptions.SetSkip(int64(q.Offset))
	}

	sortSpec := bson.D{}
	for _, o := range q.OrderBy {
		dir := 1
		if o.Direction == "desc" {
			dir = -1
		}
		sortSpec = append(sortSpec, bson.E{Key: mapField(o.Field), Value: dir})
	}
	// Deterministic order even without an explicit sort
	sortSpec = append(sortSpec, bson.E{Key: "doc_id", Value: 1})
	findOptions.SetSort(sortSpec)

	cursor, err := b.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, model.WrapError(err)
	}
	defer cursor.Close(ctx)

	var docs []*types.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, model.WrapError(err)
	}
	return docs, nil
}

func (b *backend) Count(ctx context.Context, q model.Query) (int64, error) {
	filter, err := makeFilterBSON(q.Filters)
	if err != nil {
		return 0, err
	}
	filter["collection"] = q.Collection

	count, err := b.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, model.WrapError(err)
	}
	return count, nil
}

// ValueCounts groups the documents matching q by the given field and counts
// each distinct value, ordered by value.
func (b *backend) ValueCounts(ctx context.Context, q model.Query, field string) ([]model.ValueCount, error) {
	filter, err := makeFilterBSON(q.Filters)
	if err != nil {
		return nil, err
	}
	filter["collection"] = q.Collection

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + mapField(field)},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := b.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, model.WrapError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Value interface{} `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, model.WrapError(err)
	}

	counts := make([]model.ValueCount, 0, len(rows))
	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		counts = append(counts, model.ValueCount{Value: row.Value, Count: row.Count})
	}
	return counts, nil
}

func (b *backend) Close(ctx context.Context) error {
	if b.client != nil {
		return b.client.Disconnect(ctx)
	}
	return nil
}
