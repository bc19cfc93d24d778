package target

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
	Create(ctx context.Context, target *SyncTarget) error
	Get(ctx context.Context, id string) (*SyncTarget, error)
	ListByOwner(ctx context.Context, ownerID string) ([]SyncTarget, error)
	ListEnabled(ctx context.Context, ownerID string) ([]SyncTarget, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type DataSourceRepository interface {
	ReplaceForTarget(ctx context.Context, targetID primitive.ObjectID, refs []DataSourceRef) error
	ListByTarget(ctx context.Context, targetID primitive.ObjectID) ([]DataSourceRef, error)
	SaveCursor(ctx context.Context, id primitive.ObjectID, cursor string) error
	DeleteByTarget(ctx context.Context, targetID primitive.ObjectID) error
}

type RepositoryImpl struct {
	collection  *mongo.Collection
	dataSources DataSourceRepository
}

func NewRepository(db *database.MongodbDB, dataSources DataSourceRepository) Repository {
	return &RepositoryImpl{
		collection:  db.DB.Collection("sync_targets"),
		dataSources: dataSources,
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, target *SyncTarget) error {
	if target.ID.IsZero() {
		target.ID = primitive.NewObjectID()
	}
	target.CreatedAt = time.Now()
	target.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, target)
	return err
}

func (r *RepositoryImpl) Get(ctx context.Context, id string) (*SyncTarget, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var target SyncTarget
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&target); err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *RepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]SyncTarget, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID})
}

func (r *RepositoryImpl) ListEnabled(ctx context.Context, ownerID string) ([]SyncTarget, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID, "enabled": true})
}

func (r *RepositoryImpl) list(ctx context.Context, filter bson.M) ([]SyncTarget, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var targets []SyncTarget
	if err = cursor.All(ctx, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	updates["updated_at"] = time.Now()
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": updates})
	return err
}

// Delete removes the target and cascades to its data source refs.
func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	if err := r.dataSources.DeleteByTarget(ctx, oid); err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

type DataSourceRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDataSourceRepository(db *database.MongodbDB) DataSourceRepository {
	return &DataSourceRepositoryImpl{
		collection: db.DB.Collection("data_sources"),
	}
}

// ReplaceForTarget refreshes the discovered data sources of one target,
// keeping cursors of refs that survive rediscovery.
func (r *DataSourceRepositoryImpl) ReplaceForTarget(ctx context.Context, targetID primitive.ObjectID, refs []DataSourceRef) error {
	existing, err := r.ListByTarget(ctx, targetID)
	if err != nil {
		return err
	}
	cursors := make(map[string]string, len(existing))
	for _, ref := range existing {
		cursors[ref.DataSourceID] = ref.LastCursor
	}

	if _, err := r.collection.DeleteMany(ctx, bson.M{"target_id": targetID}); err != nil {
		return err
	}

	if len(refs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(refs))
	for i := range refs {
		if refs[i].ID.IsZero() {
			refs[i].ID = primitive.NewObjectID()
		}
		refs[i].TargetID = targetID
		refs[i].DiscoveredAt = time.Now()
		refs[i].LastCursor = cursors[refs[i].DataSourceID]
		docs = append(docs, refs[i])
	}

	_, err = r.collection.InsertMany(ctx, docs)
	return err
}

func (r *DataSourceRepositoryImpl) ListByTarget(ctx context.Context, targetID primitive.ObjectID) ([]DataSourceRef, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var refs []DataSourceRef
	if err = cursor.All(ctx, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *DataSourceRepositoryImpl) SaveCursor(ctx context.Context, id primitive.ObjectID, cursor string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_cursor": cursor}},
	)
	return err
}

func (r *DataSourceRepositoryImpl) DeleteByTarget(ctx context.Context, targetID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"target_id": targetID})
	return err
}
