package syncer

import (
	"context"
	"time"

	"notisync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, run *SyncRun) error
	ListByOwner(ctx context.Context, ownerID string, limit int64) ([]SyncRun, error)
	ListByTarget(ctx context.Context, targetID primitive.ObjectID, limit int64) ([]SyncRun, error)
}

type RepositoryImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{
		collection: db.DB.Collection("sync_runs"),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, run *SyncRun) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *RepositoryImpl) ListByOwner(ctx context.Context, ownerID string, limit int64) ([]SyncRun, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID}, limit)
}

func (r *RepositoryImpl) ListByTarget(ctx context.Context, targetID primitive.ObjectID, limit int64) ([]SyncRun, error) {
	return r.list(ctx, bson.M{"target_id": targetID}, limit)
}

func (r *RepositoryImpl) list(ctx context.Context, filter bson.M, limit int64) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []SyncRun
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
