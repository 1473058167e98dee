package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/server"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// JobSummary describes one past job. Transcript text is not included.
type JobSummary struct {
	ID          string     `json:"id"`
	Status      job.Status `json:"status"`
	AudioKey    string     `json:"audio_key"`
	TextLength  int        `json:"text_length"`
	Consumed    bool       `json:"consumed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobsResponse is returned by GET /api/jobs.
type JobsResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// Jobs lists recent jobs from the history mirror. ?limit bounds the result
// (default 50, at most 500).
func (h *Handler) Jobs(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			server.Error(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("history query failed", logger.Fields(logger.FieldError, err.Error()))
		server.RespondWithMessage(c, err)
		return
	}

	resp := JobsResponse{Jobs: make([]JobSummary, 0, len(records))}
	for _, rec := range records {
		sum := JobSummary{
			ID:         rec.ID,
			Status:     rec.Status,
			AudioKey:   rec.AudioKey,
			TextLength: len(rec.Text),
			Consumed:   rec.Consumed,
			CreatedAt:  rec.CreatedAt,
		}
		if !rec.CompletedAt.IsZero() {
			completed := rec.CompletedAt
			sum.CompletedAt = &completed
		}
		resp.Jobs = append(resp.Jobs, sum)
	}
	c.JSON(http.StatusOK, resp)
}
