package syncer

import (
	"time"

	"notisync/internal/features/mirror"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncRun is the persisted record of one target's sync attempt.
type SyncRun struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID    string             `json:"owner_id" bson:"owner_id"`
	TargetID   primitive.ObjectID `json:"target_id" bson:"target_id"`
	TargetName string             `json:"target_name" bson:"target_name"`
	StartedAt  time.Time          `json:"started_at" bson:"started_at"`
	FinishedAt time.Time          `json:"finished_at" bson:"finished_at"`
	Success    bool               `json:"success" bson:"success"`
	Counts     mirror.Counts      `json:"counts" bson:"counts"`
	Tables     []string           `json:"tables,omitempty" bson:"tables,omitempty"`
	Error      string             `json:"error,omitempty" bson:"error,omitempty"`
}

// TargetResult is one target's outcome inside an aggregate run.
type TargetResult struct {
	TargetID   string        `json:"target_id"`
	TargetName string        `json:"target_name"`
	Success    bool          `json:"success"`
	Counts     mirror.Counts `json:"counts"`
	Error      string        `json:"error,omitempty"`
}

// AggregateResult summarizes one Run invocation across its targets. A failed
// target never aborts the run; it shows up here with Success false.
type AggregateResult struct {
	Targets   []TargetResult `json:"targets"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}
