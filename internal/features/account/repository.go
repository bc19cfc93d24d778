package account

import (
	"context"
	"time"

	"notisync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByOwner(ctx context.Context, ownerID string) (*Account, error)
	Upsert(ctx context.Context, account *Account) error
}

type RepositoryImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{
		collection: db.DB.Collection("accounts"),
	}
}

func (r *RepositoryImpl) GetByOwner(ctx context.Context, ownerID string) (*Account, error) {
	var account Account
	err := r.collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *RepositoryImpl) Upsert(ctx context.Context, account *Account) error {
	now := time.Now()
	account.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"name":           account.Name,
			"notion_token":   account.NotionToken,
			"notion_version": account.NotionVersion,
			"capabilities":   account.Capabilities,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"owner_id": account.OwnerID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}
