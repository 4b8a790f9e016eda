package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
)

// MongoCollection is the collection holding tree documents.
const MongoCollection = "trees"

// MongoStore keeps each tree as one document keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, stderrors.New("mongo uri is required")
	}
	if database == "" {
		return nil, stderrors.New("mongo database is required")
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStoreFromClient(client, database), nil
}

// NewMongoStoreFromClient uses an already connected client.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}
}

func (s *MongoStore) Get(ctx context.Context, id string) (family.Tree, error) {
	var t family.Tree
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return family.Tree{}, notFound(id)
	}
	if err != nil {
		return family.Tree{}, fmt.Errorf("find tree: %w", err)
	}
	return t, nil
}

func (s *MongoStore) Put(ctx context.Context, t *family.Tree) error {
	if err := prepare(t); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace tree: %w", err)
	}
	return nil
}

// summaryPipeline projects tree documents to [Summary] fields.
var summaryPipeline = mongo.Pipeline{
	{{Key: "$project", Value: bson.D{
		{Key: "name", Value: 1},
		{Key: "root_person_id", Value: 1},
		{Key: "updated_at", Value: 1},
		{Key: "persons", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$persons", bson.A{}}}}}}},
		{Key: "relationships", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$relationships", bson.A{}}}}}}},
	}}},
	{{Key: "$sort", Value: bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}}},
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Aggregate(ctx, summaryPipeline)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode trees: %w", err)
	}
	for i := range out {
		out[i].UpdatedAt = out[i].UpdatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateTreeID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tree: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
