package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is created lazily the first time a username creates a survey or casts
// a named vote. There is no credential: the username is an opaque handle.
type User struct {
	ID             bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username       string          `bson:"username" json:"username"`
	SurveysCreated []bson.ObjectID `bson:"surveys_created" json:"surveysCreated"`
	SurveysVoted   []bson.ObjectID `bson:"surveys_voted" json:"surveysVoted"`
	CreatedAt      time.Time       `bson:"created_at" json:"createdAt"`
}
