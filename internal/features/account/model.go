package account

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account holds one owner's remote credential and capability grants.
type Account struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID       string             `json:"owner_id" bson:"owner_id"`
	Name          string             `json:"name" bson:"name"`
	NotionToken   string             `json:"-" bson:"notion_token"`
	NotionVersion string             `json:"notion_version" bson:"notion_version"`
	Capabilities  []string           `json:"capabilities" bson:"capabilities"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
