package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/pipelines"
	mongorepo "github.com/prepvoice/prepvoice/internal/repositories/mongo"
	pgrepo "github.com/prepvoice/prepvoice/internal/repositories/postgres"
	"github.com/prepvoice/prepvoice/internal/utils"
)

// FeedbackWorkerPool replays finished interviews through the feedback
// pipeline. The regenerate endpoint enqueues interview ids on a Redis stream;
// each consumer reloads the stored transcript and regenerates the feedback in
// place under its existing id.
type FeedbackWorkerPool struct {
	Redis      *redis.Client
	Interviews mongorepo.InterviewRepository
	Feedback   mongorepo.FeedbackRepository
	Turns      pgrepo.TranscriptRepository
	Pipeline   *pipelines.FeedbackPipeline
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *FeedbackWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Interviews == nil || p.Feedback == nil || p.Pipeline == nil {
		return errors.New("FeedbackWorkerPool missing dependency: Redis/Interviews/Feedback/Pipeline must be set")
	}
	if p.Stream == "" {
		p.Stream = "feedback:regenerate"
	}
	if p.Group == "" {
		p.Group = "feedback-workers"
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

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
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
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
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
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	interviewID := getStr("interview_id")
	if interviewID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":     msg.ID,
		"interview_id": interviewID,
	})

	iv, err := p.Interviews.GetByID(ctx, interviewID)
	if err != nil {
		log.WithError(err).Warn("interview not found, skipping regeneration")
		return
	}

	feedbackID := ""
	fb, err := p.Feedback.GetByInterviewAndUser(ctx, interviewID, iv.UserID)
	switch {
	case err == nil:
		feedbackID = fb.ID.Hex()
	case errors.Is(err, utils.ErrNotFound):
		// First generation for this interview; the pipeline will create one.
	default:
		log.WithError(err).Warn("failed to look up existing feedback, skipping")
		return
	}

	transcript := p.loadTranscript(ctx, iv, log)
	if len(transcript) == 0 {
		log.Warn("no stored transcript, skipping regeneration")
		return
	}

	res := p.Pipeline.Run(ctx, transcript, interviewID, iv.UserID, feedbackID)
	if !res.Success {
		log.Error("feedback regeneration failed")
		return
	}
	log.WithField("feedback_id", res.FeedbackID).Info("feedback regenerated")
}

// loadTranscript prefers the relational turn rows and falls back to the
// transcript embedded in the interview document.
func (p *FeedbackWorkerPool) loadTranscript(ctx context.Context, iv *models.Interview, log *logrus.Entry) []models.Utterance {
	if p.Turns != nil {
		rows, err := p.Turns.ListByInterview(ctx, iv.ID.Hex())
		if err != nil {
			log.WithError(err).Warn("failed to load transcript turns")
		} else if len(rows) > 0 {
			out := make([]models.Utterance, len(rows))
			for i, r := range rows {
				out[i] = models.Utterance{Role: r.Role, Text: r.Text}
			}
			return out
		}
	}
	return iv.Transcript
}
