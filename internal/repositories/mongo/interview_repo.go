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

const (
	InterviewsCollection = "interviews"
	FeedbackCollection   = "feedback"
)

type interviewDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	models.Interview `bson:",inline"`
}

func (d *interviewDoc) model() models.Interview {
	out := d.Interview
	out.ID = d.ID.Hex()
	return out
}

type txnFunc func(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error)

type interviewRepo struct {
	client    *mongo.Client
	col       *mongo.Collection
	feedbacks *mongo.Collection
	inTxn     txnFunc
}

func NewInterviewRepo(db *mongo.Database) repositories.InterviewRepository {
	return newInterviewRepo(db)
}

func newInterviewRepo(db *mongo.Database) *interviewRepo {
	r := &interviewRepo{
		client:    db.Client(),
		col:       db.Collection(InterviewsCollection),
		feedbacks: db.Collection(FeedbackCollection),
	}
	r.inTxn = r.sessionTxn
	return r
}

// objectID maps malformed ids to ErrNotFound; no document can have them.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.ErrNotFound
	}
	return oid, nil
}

func (r *interviewRepo) Create(ctx context.Context, i *models.Interview) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	doc := interviewDoc{ID: primitive.NewObjectID(), Interview: *i}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	i.ID = doc.ID.Hex()
	return nil
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc interviewDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := doc.model()
	return &out, nil
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	return r.find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}

func (r *interviewRepo) ListLatest(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.find(ctx,
		bson.M{"finalized": true, "userId": bson.M{"$ne": excludeUserID}},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(limit)),
	)
}

func (r *interviewRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Interview, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []interviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Interview, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

func (r *interviewRepo) DeleteCascade(ctx context.Context, id string) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}

	n, err := r.inTxn(ctx, func(tc context.Context) (int64, error) {
		return r.deleteAll(tc, oid, id)
	})
	if isTransactionUnsupported(err) {
		// standalone server: feedback first so a failure leaves the interview
		// in place and the delete can be retried
		return r.deleteAll(ctx, oid, id)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *interviewRepo) sessionTxn(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	sess, err := r.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return fn(sc)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (r *interviewRepo) deleteAll(ctx context.Context, oid primitive.ObjectID, id string) (int64, error) {
	fb, err := r.feedbacks.DeleteMany(ctx, bson.M{"interviewId": id})
	if err != nil {
		return 0, err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, utils.ErrNotFound
	}
	return fb.DeletedCount, nil
}

// isTransactionUnsupported matches IllegalOperation, returned when the server
// is not a replica set member.
func isTransactionUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 20
	}
	return false
}
