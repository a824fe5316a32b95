package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

// QueueRequester hands feedback generation to the worker pool and waits for
// the published result.
type QueueRequester struct {
	Redis   redis.UniversalClient
	Stream  string
	Timeout time.Duration
}

func NewQueueRequester(rdb redis.UniversalClient, timeout time.Duration) *QueueRequester {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &QueueRequester{Redis: rdb, Stream: DefaultStream, Timeout: timeout}
}

func (q *QueueRequester) RequestFeedback(ctx context.Context, p services.CreateFeedbackParams) (string, error) {
	const op = "QueueRequester.RequestFeedback"

	payload, err := json.Marshal(p)
	if err != nil {
		return "", utils.E(utils.CodeInvalidArgument, op, "invalid feedback request", err)
	}

	jobID := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, q.Timeout)
	defer cancel()

	// subscribe before enqueueing so the result cannot be missed
	sub := q.Redis.Subscribe(ctx, ResultChannel(jobID))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to subscribe for result", err)
	}

	if err := q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{"job_id": jobID, "payload": string(payload)},
	}).Err(); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to enqueue feedback job", err)
	}

	select {
	case msg, ok := <-sub.Channel():
		if !ok {
			return "", utils.E(utils.CodeUnavailable, op, "result subscription closed", nil)
		}
		return decodeResult(op, msg.Payload)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", utils.E(utils.CodeTimeout, op, "feedback generation timed out", ctx.Err())
		}
		return "", ctx.Err()
	}
}

func decodeResult(op, payload string) (string, error) {
	var r JobResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return "", utils.E(utils.CodeInternal, op, "malformed feedback result", err)
	}
	if !r.Success {
		code := utils.Code(r.Code)
		if code == "" {
			code = utils.CodeInternal
		}
		return "", utils.E(code, op, r.Error, nil)
	}
	return r.FeedbackID, nil
}
