package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	mapio "github.com/matzehuels/railgen/pkg/io"
)

const (
	// DefaultCollection is the collection maps are stored in.
	DefaultCollection = "maps"

	defaultConnectTimeout = 3 * time.Second
)

// MongoConfig configures a MongoDB-backed store.
type MongoConfig struct {
	URI            string        `toml:"uri"`
	Database       string        `toml:"database"`
	Collection     string        `toml:"collection"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
}

// mapDoc is the document stored per map. Data holds the JSON map document.
type mapDoc struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	Width     int       `bson:"width"`
	Height    int       `bson:"height"`
	Seed      int64     `bson:"seed"`
	Cities    int       `bson:"cities"`
	Data      []byte    `bson:"data,omitempty"`
}

func (d mapDoc) summary() Summary {
	return Summary{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		Width:     d.Width,
		Height:    d.Height,
		Seed:      uint64(d.Seed),
		Cities:    d.Cities,
	}
}

// MongoStore stores maps in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to MongoDB and verifies the connection with a ping.
func OpenMongo(ctx context.Context, cfg MongoConfig, logger *log.Logger) (*MongoStore, error) {
	if err := errors.ValidateURI(cfg.URI, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongodb database is empty")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	if logger != nil {
		logger.Info("opened mongodb", "database", cfg.Database, "collection", cfg.Collection)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, m *generator.Map) (string, error) {
	data, err := mapio.Marshal(m)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "encode map")
	}
	sum := summarize(NewID(), m, s.now())
	doc := mapDoc{
		ID:        sum.ID,
		CreatedAt: sum.CreatedAt,
		Width:     sum.Width,
		Height:    sum.Height,
		Seed:      int64(sum.Seed),
		Cities:    sum.Cities,
		Data:      data,
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save map %s", doc.ID)
	}
	return doc.ID, nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*generator.Map, error) {
	var doc mapDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load map %s", id)
	}
	return mapio.Unmarshal(doc.Data)
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}
	defer cur.Close(ctx)

	var docs []mapDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list maps")
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = d.summary()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete map %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
