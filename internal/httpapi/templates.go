package httpapi

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/httpapi/response"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/templaterepo"
)

// TemplatesHandler serves the /templates CRUD routes.
type TemplatesHandler struct {
	repo templaterepo.Repo
}

// NewTemplatesHandler builds a TemplatesHandler.
func NewTemplatesHandler(repo templaterepo.Repo) *TemplatesHandler {
	return &TemplatesHandler{repo: repo}
}

type templateRequest struct {
	Name            string `json:"name" binding:"required"`
	Channel         string `json:"channel" binding:"required"`
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template" binding:"required"`
}

// Create handles POST /templates.
func (h *TemplatesHandler) Create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationErr(c, err)
		return
	}
	channel := models.Channel(req.Channel)
	if !channel.IsValid() {
		response.BadRequest(c, "invalid channel")
		return
	}

	t := &models.Template{
		Name:            req.Name,
		Channel:         channel,
		SubjectTemplate: req.SubjectTemplate,
		BodyTemplate:    req.BodyTemplate,
		Active:          true,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		writeTemplateError(c, err)
		return
	}
	response.Created(c, t)
}

// List handles GET /templates.
func (h *TemplatesHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 200 {
		size = 20
	}

	items, err := h.repo.List(c.Request.Context(), (page-1)*size, size)
	if err != nil {
		writeTemplateError(c, err)
		return
	}
	response.OK(c, gin.H{"page": page, "size": size, "items": items})
}

// Get handles GET /templates/:id. The id path segment is tried as a UUID
// first and falls back to a name lookup, covering the spec's {id|name}
// route in a single handler.
func (h *TemplatesHandler) Get(c *gin.Context) {
	raw := c.Param("id")
	if id, err := uuid.Parse(raw); err == nil {
		t, err := h.repo.GetByID(c.Request.Context(), id)
		if err != nil {
			writeTemplateError(c, err)
			return
		}
		response.OK(c, t)
		return
	}

	t, err := h.repo.GetByName(c.Request.Context(), raw)
	if err != nil {
		writeTemplateError(c, err)
		return
	}
	response.OK(c, t)
}

type templateUpdateRequest struct {
	SubjectTemplate *string `json:"subject_template"`
	BodyTemplate    *string `json:"body_template"`
	Active          *bool   `json:"active"`
}

// Update handles PUT /templates/:id.
func (h *TemplatesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}

	var req templateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationErr(c, err)
		return
	}

	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeTemplateError(c, err)
		return
	}
	if req.SubjectTemplate != nil {
		t.SubjectTemplate = *req.SubjectTemplate
	}
	if req.BodyTemplate != nil {
		t.BodyTemplate = *req.BodyTemplate
	}
	if req.Active != nil {
		t.Active = *req.Active
	}

	if err := h.repo.Update(c.Request.Context(), t); err != nil {
		writeTemplateError(c, err)
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /templates/:id as a soft-deactivate.
func (h *TemplatesHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	if err := h.repo.Deactivate(c.Request.Context(), id); err != nil {
		writeTemplateError(c, err)
		return
	}
	response.Message(c, "template deactivated")
}

func writeTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, errs.ErrVersionConflict):
		response.Conflict(c, err.Error())
	default:
		response.Internal(c, "internal error")
	}
}
