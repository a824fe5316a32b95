package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

const (
	DefaultStream = "feedback:stream"
	DefaultGroup  = "feedback-workers"
)

func ResultChannel(jobID string) string { return "feedback:result:" + jobID }

// JobResult is published once per job on ResultChannel.
type JobResult struct {
	JobID      string `json:"job_id"`
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedback_id,omitempty"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

type redisPublisher struct{ rdb redis.UniversalClient }

func (p redisPublisher) Publish(ctx context.Context, channel, payload string) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// FeedbackWorkerPool consumes feedback jobs from a Redis stream consumer group
// and publishes each outcome on the job's result channel.
type FeedbackWorkerPool struct {
	Redis      redis.UniversalClient
	Feedback   services.FeedbackService
	NumWorkers int
	// Publisher defaults to Redis pub/sub.
	Publisher Publisher

	Logger logrus.FieldLogger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *FeedbackWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.Publisher == nil && p.Redis != nil {
		p.Publisher = redisPublisher{p.Redis}
	}
}

func (p *FeedbackWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Feedback == nil {
		return errors.New("FeedbackWorkerPool missing dependency: Redis/Feedback must be set")
	}
	p.defaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "group": p.Group, "workers": p.NumWorkers}).Info("feedback workers started")
	return nil
}

func (p *FeedbackWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *FeedbackWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		s, _ := msg.Values[k].(string)
		return s
	}

	jobID := getStr("job_id")
	if jobID == "" {
		p.Logger.WithField("redis_id", msg.ID).Warn("feedback job without job_id dropped")
		return
	}
	log := p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "job_id": jobID})

	result := JobResult{JobID: jobID}

	var params services.CreateFeedbackParams
	if err := json.Unmarshal([]byte(getStr("payload")), &params); err != nil {
		log.WithError(err).Warn("invalid feedback job payload")
		result.Code = string(utils.CodeInvalidArgument)
		result.Error = "invalid payload"
		p.publish(ctx, log, result)
		return
	}
	log = log.WithFields(logrus.Fields{"interview_id": params.InterviewID, "user_id": params.UserID})

	start := time.Now()
	fb, err := p.Feedback.Create(ctx, params)
	if err != nil {
		log.WithError(err).Error("feedback generation failed")
		result.Code = string(utils.CodeOf(err))
		result.Error = utils.PublicMessage(err)
	} else {
		result.Success = true
		result.FeedbackID = fb.ID
		log.WithFields(logrus.Fields{"feedback_id": fb.ID, "processing_ms": time.Since(start).Milliseconds()}).Info("feedback job done")
	}
	p.publish(ctx, log, result)
}

func (p *FeedbackWorkerPool) publish(ctx context.Context, log logrus.FieldLogger, r JobResult) {
	b, _ := json.Marshal(r)
	if err := p.Publisher.Publish(ctx, ResultChannel(r.JobID), string(b)); err != nil {
		log.WithError(err).Error("publish feedback result failed")
	}
}
