package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/auth"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/internal/usecase/notify"
	"github.com/SeopE9611/sub010-backend/pkg/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type recordPayload struct {
	ID          int64                                         `json:"id,string"`
	EventType   notification.EventType                        `json:"event_type"`
	Status      notification.Status                           `json:"status"`
	Channels    []notification.Channel                        `json:"channels"`
	Rendered    map[notification.Channel]notification.Content `json:"rendered"`
	Payload     json.RawMessage                               `json:"payload"`
	Retries     int                                           `json:"retries"`
	DedupeKey   string                                        `json:"dedupe_key,omitempty"`
	Error       string                                        `json:"error,omitempty"`
	CreatedAt   time.Time                                     `json:"created_at"`
	LastTriedAt *time.Time                                    `json:"last_tried_at,omitempty"`
	SentAt      *time.Time                                    `json:"sent_at,omitempty"`
}

func recordResponse(record *notification.Record) *recordPayload {
	if record == nil {
		return nil
	}
	return &recordPayload{
		ID:          record.ID,
		EventType:   record.EventType,
		Status:      record.Status,
		Channels:    record.Channels,
		Rendered:    record.Rendered,
		Payload:     record.Payload,
		Retries:     record.Retries,
		DedupeKey:   record.DedupeKey,
		Error:       record.LastError,
		CreatedAt:   record.CreatedAt,
		LastTriedAt: record.LastTriedAt,
		SentAt:      record.SentAt,
	}
}

type enqueueRequest struct {
	EventType string          `json:"event_type" binding:"required"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
	Channels  []string        `json:"channels" binding:"required"`
	DedupeKey string          `json:"dedupe_key"`
}

func (r *Router) EnqueueRecord(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channels := make([]notification.Channel, 0, len(req.Channels))
	for _, ch := range req.Channels {
		channels = append(channels, notification.Channel(ch))
	}

	record, reused, err := r.enqueueUC.Execute(c.Request.Context(), notify.EnqueueInput{
		EventType: notification.EventType(req.EventType),
		Payload:   req.Payload,
		Channels:  channels,
		DedupeKey: req.DedupeKey,
	})
	if err != nil {
		r.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"id": strconv.FormatInt(record.ID, 10), "reused": reused})
}

func (r *Router) GetRecord(c *gin.Context) {
	id, ok := r.recordID(c)
	if !ok {
		return
	}

	record, err := r.repo.Get(c.Request.Context(), id)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordResponse(record))
}

func (r *Router) ListRecords(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		offset = parsed
	}

	status := notification.Status(c.Query("status"))
	records, err := r.repo.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		r.writeError(c, err)
		return
	}

	items := make([]*recordPayload, 0, len(records))
	for _, record := range records {
		items = append(items, recordResponse(record))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (r *Router) RetryRecord(c *gin.Context) {
	id, ok := r.recordID(c)
	if !ok {
		return
	}

	record, err := r.retryUC.Execute(c.Request.Context(), id, auth.Operator(c))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordResponse(record))
}

func (r *Router) ReleaseStuck(c *gin.Context) {
	released, err := r.sweepUC.Execute(c.Request.Context())
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (r *Router) recordID(c *gin.Context) (int64, bool) {
	id, err := snowflake.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return 0, false
	}
	return id, true
}

// writeError maps the outbox error taxonomy onto HTTP statuses. Delivery
// failures never arrive here; they live on the record itself.
func (r *Router) writeError(c *gin.Context, err error) {
	var renderErr *notification.RenderError

	switch {
	case errors.Is(err, notification.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, notification.ErrAlreadySent):
		c.JSON(http.StatusConflict, gin.H{"error": "already_sent"})
	case errors.Is(err, notification.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_rendered_payload"})
	case errors.Is(err, notification.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, notify.ErrNoChannels):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_channels"})
	case errors.As(err, &renderErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "render_failed",
			"reason": string(renderErr.Reason),
			"detail": renderErr.Error(),
		})
	case errors.Is(err, notification.ErrStoreUnavailable):
		r.logger.Error("outbox_store_unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
	default:
		r.logger.Error("outbox_internal_error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
