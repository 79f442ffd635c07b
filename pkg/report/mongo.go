package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/bayesaudit/pkg/audit"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase    = "bayesaudit"
	DefaultStagesCollection = "stages"
	DefaultResultCollection = "results"
)

// inserter is the part of *mongo.Collection the recorder uses.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoRecorder stores stage and result documents in MongoDB.
type MongoRecorder struct {
	client  *mongo.Client
	stages  inserter
	results inserter
}

// NewMongo connects to uri and records into database, which defaults to
// [DefaultMongoDatabase].
func NewMongo(ctx context.Context, uri, database string) (*MongoRecorder, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(database)
	return &MongoRecorder{
		client:  client,
		stages:  db.Collection(DefaultStagesCollection),
		results: db.Collection(DefaultResultCollection),
	}, nil
}

// RecordStage inserts a [StageDoc].
func (m *MongoRecorder) RecordStage(ctx context.Context, rep audit.StageReport) error {
	if _, err := m.stages.InsertOne(ctx, NewStageDoc(rep)); err != nil {
		return fmt.Errorf("insert stage %d: %w", rep.Stage, err)
	}
	return nil
}

// RecordResult inserts a [ResultDoc].
func (m *MongoRecorder) RecordResult(ctx context.Context, res *audit.Result) error {
	if _, err := m.results.InsertOne(ctx, NewResultDoc(res)); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoRecorder) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

var _ audit.Recorder = (*MongoRecorder)(nil)
