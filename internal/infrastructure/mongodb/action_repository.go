package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
)

const actionLogCollection = "console_action_log"

// ActionRepository implements domain.ActionLog using MongoDB
type ActionRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewActionRepository creates a new ActionRepository. Records older than
// retention are expired by MongoDB; zero keeps them forever.
func NewActionRepository(db *mongo.Database, retention time.Duration, logger *logging.Logger, m *metrics.Metrics) *ActionRepository {
	collection := db.Collection(actionLogCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	startedAt := options.Index()
	if retention > 0 {
		startedAt.SetExpireAfterSeconds(int32(retention.Seconds()))
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recordId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "startedAt", Value: -1}},
			Options: startedAt,
		},
		{
			Keys: bson.D{
				{Key: "resourceType", Value: 1},
				{Key: "resourceId", Value: 1},
				{Key: "startedAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "action", Value: 1},
				{Key: "outcome", Value: 1},
				{Key: "startedAt", Value: -1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.WithError(err).Warn("Failed to create action log indexes")
	}

	return &ActionRepository{
		collection: collection,
		logger:     logger,
		metrics:    m,
	}
}

// Append stores one action record
func (r *ActionRepository) Append(ctx context.Context, record *domain.ActionRecord) error {
	start := time.Now()
	_, err := r.collection.InsertOne(ctx, record)
	r.observe(ctx, "insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to append action record: %w", err)
	}
	return nil
}

// List returns matching records, newest first
func (r *ActionRepository) List(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	start := time.Now()
	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		r.observe(ctx, "find", start, err)
		return nil, fmt.Errorf("failed to list action records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*domain.ActionRecord, 0)
	err = cursor.All(ctx, &records)
	r.observe(ctx, "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode action records: %w", err)
	}

	return records, nil
}

func (r *ActionRepository) observe(ctx context.Context, operation string, start time.Time, err error) {
	duration := time.Since(start)
	r.logger.DatabaseQuery(ctx, actionLogCollection, operation, duration, err == nil)
	r.metrics.RecordMongoDBOperation(actionLogCollection, operation, err == nil, duration)
}

func buildFilter(filter domain.ActionLogFilter) bson.M {
	query := bson.M{}

	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.ResourceType != "" {
		query["resourceType"] = filter.ResourceType
	}
	if filter.ResourceID > 0 {
		query["resourceId"] = filter.ResourceID
	}
	if filter.Outcome != "" {
		query["outcome"] = filter.Outcome
	}

	return query
}

var _ domain.ActionLog = (*ActionRepository)(nil)
