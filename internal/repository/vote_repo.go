package repository

import (
	"context"
	"time"

	"survey-backend/internal/database"
	"survey-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type VoteRepo struct {
	collection *mongo.Collection
}

func NewVoteRepo() *VoteRepo {
	return &VoteRepo{
		collection: database.GetCollection("votes"),
	}
}

// Create inserts a vote record. The unique (survey_id, username) index makes
// this the duplicate-vote guard: a second vote by the same user on the same
// survey fails with a duplicate-key error, which callers detect via
// mongo.IsDuplicateKeyError.
func (r *VoteRepo) Create(ctx context.Context, vote *models.Vote) error {
	vote.VotedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, vote)
	if err != nil {
		return err
	}
	vote.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *VoteRepo) FindBySurveyAndUser(ctx context.Context, surveyID bson.ObjectID, username string) (*models.Vote, error) {
	var vote models.Vote
	err := r.collection.FindOne(ctx, bson.M{
		"survey_id": surveyID,
		"username":  username,
	}).Decode(&vote)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &vote, nil
}

func (r *VoteRepo) CountByUsername(ctx context.Context, username string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"username": username})
}

// DeleteBySurvey removes every vote for a survey (survey-deletion cascade).
func (r *VoteRepo) DeleteBySurvey(ctx context.Context, surveyID bson.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"survey_id": surveyID})
	return err
}

// ListByUsername returns the user's votes joined with each parent survey's
// title and question, most recent first.
func (r *VoteRepo) ListByUsername(ctx context.Context, username string) ([]models.UserVote, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "username", Value: username}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "surveys"},
			{Key: "localField", Value: "survey_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "survey"},
		}}},
		bson.D{{Key: "$unwind", Value: "$survey"}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "survey_id", Value: 1},
			{Key: "option", Value: 1},
			{Key: "voted_at", Value: 1},
			{Key: "survey_title", Value: "$survey.title"},
			{Key: "survey_question", Value: "$survey.question"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "voted_at", Value: -1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	votes := []models.UserVote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// EnsureIndexes creates necessary indexes for the votes collection
func (r *VoteRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// One vote per (survey, user); anonymous votes are never recorded
			Keys:    bson.D{{Key: "survey_id", Value: 1}, {Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "username", Value: 1}, {Key: "voted_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
