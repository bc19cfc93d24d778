package audit

import (
	"context"

	"notisync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CallLogRepository interface {
	Create(ctx context.Context, log *CallLog) error
	List(ctx context.Context, ownerID string, limit int64) ([]CallLog, error)
}

type CallLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewCallLogRepository(db *database.MongodbDB) CallLogRepository {
	return &CallLogRepositoryImpl{
		collection: db.DB.Collection("api_call_logs"),
	}
}

func (r *CallLogRepositoryImpl) Create(ctx context.Context, log *CallLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *CallLogRepositoryImpl) List(ctx context.Context, ownerID string, limit int64) ([]CallLog, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []CallLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
