package models

import "time"

type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	Read      bool      `bson:"read" json:"read"`
	// Seq is the store-assigned insertion order.
	Seq int64 `bson:"seq" json:"-"`
}
