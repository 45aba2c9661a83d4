package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepvoice/prepvoice/internal/cache"
	"github.com/prepvoice/prepvoice/internal/pipelines"
	"github.com/prepvoice/prepvoice/internal/utils"
)

type ScorecardHandler struct {
	pipeline *pipelines.ScorecardPipeline
	stash    *cache.ScorecardStash
}

func NewScorecardHandler(pipeline *pipelines.ScorecardPipeline, stash *cache.ScorecardStash) *ScorecardHandler {
	return &ScorecardHandler{pipeline: pipeline, stash: stash}
}

type GenerateScorecardRequest struct {
	Transcript string `json:"transcript"`
}

// Generate runs scorecard analysis over a raw transcript string. The response
// shape is its own contract: {"scorecard": ...} on success, {"error",
// "details"} otherwise.
func (h *ScorecardHandler) Generate(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req GenerateScorecardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sc, err := h.pipeline.GenerateFromText(c.Request.Context(), req.Transcript)
	if err != nil {
		if errors.Is(err, pipelines.ErrEmptyTranscript) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate scorecard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scorecard": sc})
}

// Get serves the transient copy stashed by a finished session. Entries expire
// with the stash TTL, after which the durable records are the only source.
func (h *ScorecardHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ScorecardHandler.Get", "missing session_id", nil))
		return
	}

	sc, hit, err := h.stash.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ScorecardHandler.Get", "failed to read scorecard", err))
		return
	}
	if !hit {
		writeError(c, utils.E(utils.CodeNotFound, "ScorecardHandler.Get", "scorecard not found", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"scorecard": sc})
}
