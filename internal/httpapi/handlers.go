package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/mail-triage/internal/ingest"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/internal/triage"
)

type analyzeRequest struct {
	Sender     string `json:"sender" binding:"required"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
	ThreadID   string `json:"thread_id"`
	MessageID  string `json:"message_id"`
}

type statusRequest struct {
	EmailID   int64   `json:"email_id" binding:"required"`
	NewStatus string  `json:"new_status" binding:"required"`
	Notes     *string `json:"notes"`
}

type pendingEmail struct {
	ID            int64          `json:"id"`
	Sender        string         `json:"sender"`
	Subject       string         `json:"subject"`
	Category      model.Category `json:"category"`
	Urgency       int            `json:"urgency"`
	Summary       string         `json:"summary"`
	Action        model.Action   `json:"action"`
	RequiresHuman bool           `json:"requires_human"`
}

type emailDetail struct {
	*model.EmailRecord
	FollowUps []model.FollowUp      `json:"follow_ups"`
	AuditLog  []model.AuditLogEntry `json:"audit_log"`
}

// GET /
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "running",
		"time":   s.now().Format(time.RFC3339),
	})
}

// POST /analyze
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	out, err := s.pipeline.Process(c.Request.Context(), model.IncomingEmail{
		Sender:     req.Sender,
		Subject:    req.Subject,
		Body:       req.Body,
		ReceivedAt: req.ReceivedAt,
		ThreadID:   req.ThreadID,
		MessageID:  req.MessageID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if out.Status == ingest.StatusDuplicate {
		c.JSON(http.StatusOK, gin.H{
			"status":  string(ingest.StatusDuplicate),
			"message": "Email already exists",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         string(ingest.StatusSuccess),
		"email_id":       out.EmailID,
		"category":       out.Record.Category,
		"urgency":        out.Record.Urgency,
		"action":         out.Record.SuggestedAction,
		"summary":        out.Record.Summary,
		"requires_human": out.Record.RequiresHuman,
		"analyzer":       out.Analyzer,
	})
}

// POST /status
func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.store.UpdateStatus(c.Request.Context(), req.EmailID, req.NewStatus, req.Notes); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"email_id":   req.EmailID,
		"new_status": req.NewStatus,
	})
}

// GET /pending
func (s *Server) pending(c *gin.Context) {
	recs, err := s.store.ListPending(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	emails := make([]pendingEmail, 0, len(recs))
	for _, r := range recs {
		emails = append(emails, pendingEmail{
			ID:            r.ID,
			Sender:        r.Sender,
			Subject:       r.Subject,
			Category:      r.Category,
			Urgency:       r.Urgency,
			Summary:       r.Summary,
			Action:        r.SuggestedAction,
			RequiresHuman: r.RequiresHuman,
		})
	}

	c.JSON(http.StatusOK, gin.H{"count": len(emails), "emails": emails})
}

// GET /emails/:id
func (s *Server) getEmail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email id"})
		return
	}

	ctx := c.Request.Context()
	rec, err := s.store.GetEmail(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	followUps, err := s.store.GetFollowUps(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	audit, err := s.store.GetAuditLog(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, emailDetail{EmailRecord: rec, FollowUps: followUps, AuditLog: audit})
}

// fail maps domain errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ingest.ErrInvalidEmail):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, triage.ErrMalformedResponse):
		status = http.StatusBadGateway
	case errors.Is(err, store.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request error",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
