package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

const (
	routesCollection    = "routes"
	resourcesCollection = "resources"
	recordsCollection   = "records"

	defaultConnectionTimeout = 10 * time.Second
)

// Store implements store.Store against a MongoDB database.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	routes    *mongo.Collection
	resources *mongo.Collection
	records   *mongo.Collection
	readOnly  bool
	log       *slog.Logger
}

type routeDoc struct {
	Seq                     int64 `bson:"seq"`
	catalog.RouteDefinition `bson:",inline"`
}

type resourceDoc struct {
	Seq                        int64 `bson:"seq"`
	catalog.ResourceDefinition `bson:",inline"`
}

type recordsDoc struct {
	Name    string   `bson:"_id"`
	Records []bson.D `bson:"records"`
}

// Open connects to MongoDB using cfg.MongoURI and cfg.MongoDatabase.
func Open(ctx context.Context, cfg store.Config, log *slog.Logger) (*Store, error) {
	log = logging.OrNop(log)
	if cfg.MongoURI == "" {
		return nil, errors.New("mongo store requires a connection URI")
	}
	dbName := cfg.MongoDatabase
	if dbName == "" {
		dbName = "mockapi"
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectionTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if closeErr := client.Disconnect(ctx); closeErr != nil {
			log.Error("failed to disconnect MongoDB client after ping failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	log.Info("connected to MongoDB", "database", dbName)

	return &Store{
		client:    client,
		db:        db,
		routes:    db.Collection(routesCollection),
		resources: db.Collection(resourcesCollection),
		records:   db.Collection(recordsCollection),
		readOnly:  cfg.ReadOnly,
		log:       log,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes every collection this store uses.
func (s *Store) Drop(ctx context.Context) error {
	return errors.Join(
		s.routes.Drop(ctx),
		s.resources.Drop(ctx),
		s.records.Drop(ctx),
	)
}

// ListRoutes returns routes ordered by first insertion.
func (s *Store) ListRoutes(ctx context.Context) ([]*catalog.RouteDefinition, error) {
	cur, err := s.routes.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []routeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*catalog.RouteDefinition, 0, len(docs))
	for i := range docs {
		r := docs[i].RouteDefinition
		plainRoute(&r)
		out = append(out, &r)
	}
	return out, nil
}

// GetRoute returns store.ErrNotFound when no document has the id.
func (s *Store) GetRoute(ctx context.Context, id string) (*catalog.RouteDefinition, error) {
	var doc routeDoc
	err := s.routes.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r := doc.RouteDefinition
	plainRoute(&r)
	return &r, nil
}

// PutRoute upserts a route, keeping its position when it already exists.
func (s *Store) PutRoute(ctx context.Context, route *catalog.RouteDefinition) error {
	filter := bson.D{{Key: "_id", Value: route.ID}}
	seq, err := s.seqFor(ctx, s.routes, filter)
	if err != nil {
		return err
	}
	_, err = s.routes.ReplaceOne(ctx, filter, routeDoc{Seq: seq, RouteDefinition: *route}, options.Replace().SetUpsert(true))
	return err
}

// DeleteRoute removes a route by id.
func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	res, err := s.routes.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListResources returns resource definitions ordered by first insertion.
func (s *Store) ListResources(ctx context.Context) ([]*catalog.ResourceDefinition, error) {
	cur, err := s.resources.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []resourceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*catalog.ResourceDefinition, 0, len(docs))
	for i := range docs {
		d := docs[i].ResourceDefinition
		out = append(out, &d)
	}
	return out, nil
}

// PutResource upserts a resource definition keyed by name.
func (s *Store) PutResource(ctx context.Context, def *catalog.ResourceDefinition) error {
	d := *def
	if d.ID == "" {
		d.ID = d.Name
	}
	filter := bson.D{{Key: "name", Value: d.Name}}
	seq, err := s.seqFor(ctx, s.resources, filter)
	if err != nil {
		return err
	}
	// A renamed id would collide on _id, so drop the old document first.
	if _, err := s.resources.DeleteMany(ctx, bson.D{
		{Key: "name", Value: d.Name},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: d.ID}}},
	}); err != nil {
		return err
	}
	_, err = s.resources.ReplaceOne(ctx, bson.D{{Key: "_id", Value: d.ID}}, resourceDoc{Seq: seq, ResourceDefinition: d}, options.Replace().SetUpsert(true))
	return err
}

// GetRecords returns store.ErrNotFound when no collection document exists.
func (s *Store) GetRecords(ctx context.Context, name string) ([]*record.Record, error) {
	var doc recordsDoc
	err := s.records.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]*record.Record, 0, len(doc.Records))
	for _, d := range doc.Records {
		out = append(out, recordFromD(d))
	}
	return out, nil
}

// PutRecords replaces the collection document for name.
func (s *Store) PutRecords(ctx context.Context, name string, records []*record.Record) error {
	if s.readOnly {
		return store.ErrReadOnly
	}
	doc := recordsDoc{Name: name, Records: make([]bson.D, 0, len(records))}
	for _, rec := range records {
		doc.Records = append(doc.Records, recordToD(rec))
	}
	_, err := s.records.ReplaceOne(ctx, bson.D{{Key: "_id", Value: name}}, doc, options.Replace().SetUpsert(true))
	return err
}

// seqFor returns the existing seq of the document matching filter, or a new one.
func (s *Store) seqFor(ctx context.Context, coll *mongo.Collection, filter bson.D) (int64, error) {
	var existing struct {
		Seq int64 `bson:"seq"`
	}
	err := coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.D{{Key: "seq", Value: 1}})).Decode(&existing)
	switch {
	case err == nil:
		return existing.Seq, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return time.Now().UnixNano(), nil
	default:
		return 0, err
	}
}

var _ store.Store = (*Store)(nil)
