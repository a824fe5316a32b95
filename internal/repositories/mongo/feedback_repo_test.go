package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestFeedbackSave(t *testing.T) {
	mt := newMock(t)

	mt.Run("new record is inserted", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		fb := &models.Feedback{InterviewID: "iv1", UserID: "u1", Kind: models.KindDefence}
		require.NoError(mt, r.Save(context.Background(), fb))
		_, err := primitive.ObjectIDFromHex(fb.ID)
		assert.NoError(mt, err)
		assert.False(mt, fb.CreatedAt.IsZero())

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "insert", ev.CommandName)
	})

	mt.Run("known id is upserted", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: oid}}}},
		))

		created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		fb := &models.Feedback{ID: oid.Hex(), InterviewID: "iv1", UserID: "u1", CreatedAt: created}
		require.NoError(mt, r.Save(context.Background(), fb))
		assert.Equal(mt, oid.Hex(), fb.ID)
		assert.Equal(mt, created, fb.CreatedAt)
		assert.True(mt, fb.UpdatedAt.After(created))

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "update", ev.CommandName)
		upd := ev.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, upd.Lookup("upsert").Boolean())
		assert.Equal(mt, oid, upd.Lookup("q", "_id").ObjectID())
		assert.Equal(mt, "iv1", upd.Lookup("u", "interviewId").StringValue())
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		err := r.Save(context.Background(), &models.Feedback{ID: "nope"})
		assert.True(mt, utils.IsCode(err, utils.CodeInvalidArgument))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestFeedbackLookups(t *testing.T) {
	mt := newMock(t)
	oid := primitive.NewObjectID()
	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "interviewId", Value: "iv1"},
		{Key: "userId", Value: "u1"},
		{Key: "kind", Value: string(models.KindJobInterview)},
		{Key: "totalScore", Value: 81},
		{Key: "categoryScores", Value: bson.A{bson.D{{Key: "name", Value: "Communication Skills"}, {Key: "score", Value: 80}}}},
	}
	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + FeedbackCollection }

	mt.Run("by id", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, doc))

		fb, err := r.GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), fb.ID)
		assert.Equal(mt, 81, fb.TotalScore)
		require.Len(mt, fb.CategoryScores, 1)
		assert.Equal(mt, 80, fb.CategoryScores[0].Score)
	})

	mt.Run("latest for interview and user", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, doc))

		fb, err := r.FindByInterview(context.Background(), "iv1", "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", fb.UserID)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "u1", ev.Command.Lookup("filter", "userId").StringValue())
		assert.EqualValues(mt, -1, ev.Command.Lookup("sort", "createdAt").AsInt64())
	})

	mt.Run("empty cursor is not found", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := r.FindByInterview(context.Background(), "iv1", "u1")
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		_, err := r.GetByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})
}

func TestFeedbackDelete(t *testing.T) {
	mt := newMock(t)

	mt.Run("deleted", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(deleted(1))
		assert.NoError(mt, r.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("nothing matched", func(mt *mtest.T) {
		r := NewFeedbackRepo(mt.DB)
		mt.AddMockResponses(deleted(0))
		assert.ErrorIs(mt, r.Delete(context.Background(), primitive.NewObjectID().Hex()), utils.ErrNotFound)
	})
}
