package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(db *mongo.Database) error {
	if db == nil {
		return errors.New("mongo database is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Collection("interviews").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("by_user_created"),
		},
		// latest finalized sessions of other users
		{
			Keys:    bson.D{{Key: "finalized", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("by_finalized_created"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("feedback").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "interviewId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetName("by_interview_user"),
		},
	})
	return err
}
