package schedule

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleEntry is one owner's persisted recurring sync. At most one exists
// per owner; rescheduling replaces the expression in place.
type ScheduleEntry struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID    string             `json:"owner_id" bson:"owner_id"`
	Expression string             `json:"expression" bson:"expression"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
