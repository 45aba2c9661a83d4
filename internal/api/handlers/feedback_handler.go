package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/prepvoice/prepvoice/internal/utils"
)

type FeedbackHandler struct {
	redis  *redis.Client
	stream string
}

func NewFeedbackHandler(rdb *redis.Client, stream string) *FeedbackHandler {
	if stream == "" {
		stream = "feedback:regenerate"
	}
	return &FeedbackHandler{redis: rdb, stream: stream}
}

type RegenerateFeedbackRequest struct {
	InterviewIDs []string `json:"interview_ids" binding:"required"`
}

// Regenerate enqueues interviews for feedback regeneration. Admin-only; the
// worker pool drains the stream asynchronously.
func (h *FeedbackHandler) Regenerate(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req RegenerateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Regenerate", "invalid request body", err))
		return
	}
	if len(req.InterviewIDs) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Regenerate", "interview_ids is required", nil))
		return
	}

	enqueued := 0
	for _, id := range req.InterviewIDs {
		if id == "" {
			continue
		}
		err := h.redis.XAdd(c.Request.Context(), &redis.XAddArgs{
			Stream: h.stream,
			Values: map[string]any{
				"interview_id": id,
				"ts_unix":      strconv.FormatInt(time.Now().UTC().Unix(), 10),
			},
		}).Err()
		if err != nil {
			writeError(c, utils.E(utils.CodeUnavailable, "FeedbackHandler.Regenerate", "failed to enqueue regeneration", err))
			return
		}
		enqueued++
	}

	c.JSON(http.StatusAccepted, gin.H{"enqueued": enqueued})
}
