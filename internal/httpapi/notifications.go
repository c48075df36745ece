// Package httpapi wires gin handlers over the ingestion façade, store, and
// template/user collaborators, grounded in the teacher's streaming/handlers
// package layout (one handler struct per resource, constructed with its
// collaborators and registered onto a *gin.Engine).
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/httpapi/response"
	"github.com/notifyhub/notifyhub/internal/ingest"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/store"
	"github.com/notifyhub/notifyhub/internal/templaterepo"
)

// NotificationsHandler serves the /notifications routes.
type NotificationsHandler struct {
	ingest    *ingest.Service
	store     store.Store
	templates templaterepo.Repo
}

// NewNotificationsHandler builds a NotificationsHandler.
func NewNotificationsHandler(svc *ingest.Service, s store.Store, t templaterepo.Repo) *NotificationsHandler {
	return &NotificationsHandler{ingest: svc, store: s, templates: t}
}

type submitRequest struct {
	UserID            uuid.UUID         `json:"user_id" binding:"required"`
	Channel           string            `json:"channel" binding:"required"`
	Priority          string            `json:"priority"`
	TemplateName      string            `json:"template_name"`
	Subject           string            `json:"subject"`
	Content           string            `json:"content"`
	TemplateVariables map[string]string `json:"template_variables"`
	EventID           string            `json:"event_id"`
	Metadata          map[string]string `json:"metadata"`
	MaxRetries        int               `json:"max_retries"`
}

// Submit handles POST /notifications.
func (h *NotificationsHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationErr(c, err)
		return
	}

	domainReq, err := h.toIngestRequest(c, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	receipt, err := h.ingest.Submit(c.Request.Context(), domainReq)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":     receipt.NotificationID,
		"status": receipt.Status,
	})
}

func (h *NotificationsHandler) toIngestRequest(c *gin.Context, req submitRequest) (ingest.Request, error) {
	channel := models.Channel(req.Channel)
	if !channel.IsValid() {
		return ingest.Request{}, errs.ErrValidation
	}
	priority := models.Priority(req.Priority)

	domainReq := ingest.Request{
		UserID:     req.UserID,
		Channel:    channel,
		Priority:   priority,
		Subject:    req.Subject,
		Content:    req.Content,
		Variables:  req.TemplateVariables,
		EventID:    req.EventID,
		Metadata:   req.Metadata,
		MaxRetries: req.MaxRetries,
	}

	if req.TemplateName != "" {
		tmpl, err := h.templates.GetByName(c.Request.Context(), req.TemplateName)
		if err != nil {
			return ingest.Request{}, err
		}
		domainReq.TemplateRef = &tmpl.ID
	}

	return domainReq, nil
}

type bulkRequest struct {
	UserIDs           []uuid.UUID       `json:"user_ids" binding:"required"`
	Channel           string            `json:"channel" binding:"required"`
	Priority          string            `json:"priority"`
	TemplateName      string            `json:"template_name"`
	Subject           string            `json:"subject"`
	Content           string            `json:"content"`
	TemplateVariables map[string]string `json:"template_variables"`
	EventID           string            `json:"event_id"`
}

// Bulk handles POST /notifications/bulk.
func (h *NotificationsHandler) Bulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationErr(c, err)
		return
	}

	channel := models.Channel(req.Channel)
	if !channel.IsValid() {
		response.BadRequest(c, "invalid channel")
		return
	}

	var templateRef *uuid.UUID
	if req.TemplateName != "" {
		tmpl, err := h.templates.GetByName(c.Request.Context(), req.TemplateName)
		if err != nil {
			h.writeError(c, err)
			return
		}
		templateRef = &tmpl.ID
	}

	reqs := make([]ingest.Request, len(req.UserIDs))
	for i, uid := range req.UserIDs {
		reqs[i] = ingest.Request{
			UserID:      uid,
			Channel:     channel,
			Priority:    models.Priority(req.Priority),
			Subject:     req.Subject,
			Content:     req.Content,
			Variables:   req.TemplateVariables,
			TemplateRef: templateRef,
			EventID:     req.EventID,
		}
	}

	results := h.ingest.SubmitBulk(c.Request.Context(), reqs)

	var notificationIDs []uuid.UUID
	var failures []gin.H
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, gin.H{"user_id": r.Request.UserID, "error": r.Err.Error()})
			continue
		}
		notificationIDs = append(notificationIDs, r.Receipt.NotificationID)
	}

	response.OK(c, gin.H{
		"total_requested":  len(reqs),
		"success_count":    len(notificationIDs),
		"failed_count":     len(failures),
		"notification_ids": notificationIDs,
		"failures":         failures,
	})
}

// Get handles GET /notifications/:id.
func (h *NotificationsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}

	n, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, n)
}

// ListForUser handles GET /notifications/user/:user_id.
func (h *NotificationsHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 200 {
		size = 20
	}

	var status *models.Status
	if raw := c.Query("status"); raw != "" {
		s := models.Status(raw)
		status = &s
	}

	items, err := h.store.ListForUser(c.Request.Context(), userID, status, (page-1)*size, size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.OK(c, gin.H{
		"page":  page,
		"size":  size,
		"items": items,
	})
}

func (h *NotificationsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, errs.ErrDuplicateEvent):
		response.Err(c, http.StatusConflict, "DUPLICATE_EVENT", err.Error())
	case errors.Is(err, errs.ErrRateLimited):
		c.Header("Retry-After", "60")
		response.TooManyReqs(c, err.Error())
	default:
		response.Internal(c, "internal error")
	}
}
