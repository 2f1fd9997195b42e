package model

import "time"

// RoomLock is the per-room document every booking mutation writes inside its
// transaction. Two transactions on the same room cannot both commit.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	Version   int64     `bson:"version" json:"version"`
	LockedAt  time.Time `bson:"locked_at" json:"locked_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
