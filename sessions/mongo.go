package sessions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.vocdoni.io/dvote/log"
)

// DefaultMongoDatabase is the default name of the MongoDB database used by
// the session store.
const DefaultMongoDatabase = "checkout"

const sessionsCollection = "sessions"

// mongoRecord is the document stored for every pending record.
type mongoRecord struct {
	OrderRef string `bson:"_id"`
	Record   `bson:",inline"`
}

// Mongo is a Store backed by a MongoDB collection. A TTL index on createdAt
// removes abandoned sessions. The TTL monitor only runs once a minute, so Take
// also discards expired documents.
type Mongo struct {
	client   *mongo.Client
	sessions *mongo.Collection
	ttl      time.Duration
}

// NewMongo connects to the MongoDB server at url, selects the database and
// creates the collection indexes. If CHECKOUT_MONGO_RESET_DB is set the
// collection is dropped first.
func NewMongo(url, database string, ttl time.Duration) (*Mongo, error) {
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log.Infow("connecting to mongodb", "database", database)
	opts := options.Client()
	opts.ApplyURI(url)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx2, readpref.Primary()); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ms := &Mongo{
		client:   client,
		sessions: client.Database(database).Collection(sessionsCollection),
		ttl:      ttl,
	}
	if reset := os.Getenv("CHECKOUT_MONGO_RESET_DB"); reset != "" {
		if err := ms.Reset(); err != nil {
			disconnect(client)
			return nil, err
		}
	} else if err := ms.createIndexes(); err != nil {
		disconnect(client)
		return nil, err
	}
	return ms, nil
}

// disconnect closes a client that will not be used.
func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warnw("cannot disconnect from mongodb", "error", err)
	}
}

func (ms *Mongo) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ms.ttl.Seconds())),
	}
	if _, err := ms.sessions.Indexes().CreateOne(ctx, ttlIndex); err != nil {
		return fmt.Errorf("cannot create sessions TTL index: %w", err)
	}
	return nil
}

// Reset drops the sessions collection and recreates its indexes.
func (ms *Mongo) Reset() error {
	log.Infof("resetting sessions collection")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.sessions.Drop(ctx); err != nil {
		return err
	}
	return ms.createIndexes()
}

// Put implements Store.
func (ms *Mongo) Put(ctx context.Context, orderRef string, rec Record) error {
	if orderRef == "" {
		return ErrInvalidOrderRef
	}
	doc := mongoRecord{OrderRef: orderRef, Record: stamp(rec)}
	opts := options.Replace().SetUpsert(true)
	if _, err := ms.sessions.ReplaceOne(ctx, bson.M{"_id": orderRef}, doc, opts); err != nil {
		return fmt.Errorf("cannot store session: %w", err)
	}
	return nil
}

// Take implements Store using FindOneAndDelete, which is atomic on a single
// document.
func (ms *Mongo) Take(ctx context.Context, orderRef string) (*Record, error) {
	if orderRef == "" {
		return nil, nil
	}
	doc := &mongoRecord{}
	err := ms.sessions.FindOneAndDelete(ctx, bson.M{"_id": orderRef}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot take session: %w", err)
	}
	if doc.Expired(ms.ttl, time.Now()) {
		return nil, nil
	}
	return &doc.Record, nil
}

// Len implements Store.
func (ms *Mongo) Len(ctx context.Context) (int, error) {
	count, err := ms.sessions.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Close implements Store.
func (ms *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}
