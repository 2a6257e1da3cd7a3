package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Vote struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	SurveyID bson.ObjectID `bson:"survey_id" json:"surveyId"`
	Username string        `bson:"username" json:"username"`
	Option   string        `bson:"option" json:"option"`
	VotedAt  time.Time     `bson:"voted_at" json:"votedAt"`
}

// UserVote is a vote joined with its parent survey's title and question, as
// returned by the voting-history endpoint.
type UserVote struct {
	SurveyID       bson.ObjectID `bson:"survey_id" json:"surveyId"`
	Option         string        `bson:"option" json:"option"`
	VotedAt        time.Time     `bson:"voted_at" json:"votedAt"`
	SurveyTitle    string        `bson:"survey_title" json:"surveyTitle"`
	SurveyQuestion string        `bson:"survey_question" json:"surveyQuestion"`
}
