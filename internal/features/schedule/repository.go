package schedule

import (
	"context"
	"time"

	"notisync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Upsert(ctx context.Context, ownerID, expression string) error
	GetByOwner(ctx context.Context, ownerID string) (*ScheduleEntry, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
	List(ctx context.Context) ([]ScheduleEntry, error)
}

type RepositoryImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{
		collection: db.DB.Collection("schedules"),
	}
}

func (r *RepositoryImpl) Upsert(ctx context.Context, ownerID, expression string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"owner_id": ownerID},
		bson.M{
			"$set":         bson.M{"expression": expression, "updated_at": now},
			"$setOnInsert": bson.M{"owner_id": ownerID, "created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *RepositoryImpl) GetByOwner(ctx context.Context, ownerID string) (*ScheduleEntry, error) {
	var entry ScheduleEntry
	if err := r.collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *RepositoryImpl) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"owner_id": ownerID})
	return err
}

func (r *RepositoryImpl) List(ctx context.Context) ([]ScheduleEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []ScheduleEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
