package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/repositories"
	"github.com/yoockh/yoodefence/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type feedbackDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	models.Feedback `bson:",inline"`
}

func (d *feedbackDoc) model() *models.Feedback {
	out := d.Feedback
	out.ID = d.ID.Hex()
	return &out
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) repositories.FeedbackRepository {
	return &feedbackRepo{col: db.Collection(FeedbackCollection)}
}

func (r *feedbackRepo) Save(ctx context.Context, f *models.Feedback) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	if f.ID == "" {
		doc := feedbackDoc{ID: primitive.NewObjectID(), Feedback: *f}
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return err
		}
		f.ID = doc.ID.Hex()
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(f.ID)
	if err != nil {
		return utils.E(utils.CodeInvalidArgument, "FeedbackRepo.Save", "invalid feedback id", err)
	}
	_, err = r.col.ReplaceOne(ctx,
		bson.M{"_id": oid},
		feedbackDoc{ID: oid, Feedback: *f},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

func (r *feedbackRepo) FindByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	return r.findOne(ctx,
		bson.M{"interviewId": interviewID, "userId": userID},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}

func (r *feedbackRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Feedback, error) {
	var doc feedbackDoc
	var err error
	if opts != nil {
		err = r.col.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.col.FindOne(ctx, filter).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *feedbackRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
