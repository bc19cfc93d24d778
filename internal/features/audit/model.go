package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CallLog is one recorded remote API call. Every request the Notion client
// issues ends up here, success or not.
type CallLog struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID    string             `json:"owner_id" bson:"owner_id"`
	Method     string             `json:"method" bson:"method"`
	URL        string             `json:"url" bson:"url"`
	Status     int                `json:"status" bson:"status"`
	DurationMs int64              `json:"duration_ms" bson:"duration_ms"`
	Success    bool               `json:"success" bson:"success"`
	Summary    string             `json:"summary,omitempty" bson:"summary,omitempty"`
	Error      string             `json:"error,omitempty" bson:"error,omitempty"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}
