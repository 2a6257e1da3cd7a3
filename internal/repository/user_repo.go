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

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		collection: database.GetCollection("users"),
	}
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// AddCreatedSurvey registers a survey in the user's created-set, creating the
// user document on first contact. $addToSet makes re-registration a no-op.
func (r *UserRepo) AddCreatedSurvey(ctx context.Context, username string, surveyID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$addToSet": bson.M{"surveys_created": surveyID},
			"$setOnInsert": bson.M{
				"surveys_voted": []bson.ObjectID{},
				"created_at":    time.Now(),
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// AddVotedSurvey registers a survey in the user's voted-set, creating the
// user document on first contact.
func (r *UserRepo) AddVotedSurvey(ctx context.Context, username string, surveyID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$addToSet": bson.M{"surveys_voted": surveyID},
			"$setOnInsert": bson.M{
				"surveys_created": []bson.ObjectID{},
				"created_at":      time.Now(),
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// RemoveCreatedSurvey drops a deleted survey from the owner's created-set.
func (r *UserRepo) RemoveCreatedSurvey(ctx context.Context, username string, surveyID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$pull": bson.M{"surveys_created": surveyID}},
	)
	return err
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
