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

type SurveyRepo struct {
	collection *mongo.Collection
}

func NewSurveyRepo() *SurveyRepo {
	return &SurveyRepo{
		collection: database.GetCollection("surveys"),
	}
}

func (r *SurveyRepo) Create(ctx context.Context, survey *models.Survey) error {
	now := time.Now()
	survey.CreatedAt = now
	survey.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return err
	}
	survey.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *SurveyRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Survey, error) {
	var survey models.Survey
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&survey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &survey, nil
}

func (r *SurveyRepo) FindAll(ctx context.Context) ([]models.Survey, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "total_votes", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	surveys := []models.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *SurveyRepo) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	surveys := []models.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// RecordVote is the only code path that mutates vote counters. One guarded
// update increments the matched option and total_votes together, and only
// while the survey is still active and unexpired, so the two counters cannot
// drift and a vote cannot land on a survey ended or expired between read and
// write. Returns false when the guard rejected the update.
func (r *SurveyRepo) RecordVote(ctx context.Context, id bson.ObjectID, optionText string, now time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":          id,
			"status":       models.StatusActive,
			"options.text": optionText,
			"expiry_date":  bson.M{"$not": bson.M{"$lt": now}},
		},
		bson.M{"$inc": bson.M{
			"options.$.votes": 1,
			"total_votes":     1,
		}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// End marks the survey ended and refreshes updated_at. Re-ending an already
// ended survey is a no-op.
func (r *SurveyRepo) End(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     models.StatusEnded,
			"updated_at": time.Now(),
		},
	})
	return err
}

func (r *SurveyRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// EnsureIndexes creates necessary indexes for the surveys collection
func (r *SurveyRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_by", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
