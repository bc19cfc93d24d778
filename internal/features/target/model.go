package target

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncTarget names one remote collection an owner mirrors.
type SyncTarget struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID    string             `json:"owner_id" bson:"owner_id"`
	DatabaseID string             `json:"database_id" bson:"database_id"`
	Name       string             `json:"name" bson:"name"`
	Enabled    bool               `json:"enabled" bson:"enabled"`
	Transform  string             `json:"transform,omitempty" bson:"transform,omitempty"`
	LastSyncAt time.Time          `json:"last_sync_at" bson:"last_sync_at"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// DataSourceRef is one resolved data source under a target. A collection may
// expose several; they are refreshed on every schema discovery.
type DataSourceRef struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"`
	TargetID     primitive.ObjectID `json:"target_id" bson:"target_id"`
	DatabaseID   string             `json:"database_id" bson:"database_id"`
	DataSourceID string             `json:"data_source_id" bson:"data_source_id"`
	Name         string             `json:"name" bson:"name"`
	LastCursor   string             `json:"last_cursor,omitempty" bson:"last_cursor,omitempty"`
	DiscoveredAt time.Time          `json:"discovered_at" bson:"discovered_at"`
}
