package httpapi

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/httpapi/response"
	"github.com/notifyhub/notifyhub/internal/user"
)

// UsersHandler serves the /users lookup routes that back notification
// ingestion — not a user-management surface, just enough read access for
// the dispatch path and operators debugging a submission.
type UsersHandler struct {
	repo user.Repo
}

// NewUsersHandler builds a UsersHandler.
func NewUsersHandler(repo user.Repo) *UsersHandler {
	return &UsersHandler{repo: repo}
}

// GetByID handles GET /users/:id.
func (h *UsersHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeUserError(c, err)
		return
	}
	response.OK(c, u)
}

// GetByEmail handles GET /users/email/:email.
func (h *UsersHandler) GetByEmail(c *gin.Context) {
	u, err := h.repo.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeUserError(c, err)
		return
	}
	response.OK(c, u)
}

// GetByPhone handles GET /users/phone/:phone.
func (h *UsersHandler) GetByPhone(c *gin.Context) {
	u, err := h.repo.GetByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeUserError(c, err)
		return
	}
	response.OK(c, u)
}

func writeUserError(c *gin.Context, err error) {
	if errors.Is(err, errs.ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	response.Internal(c, "internal error")
}
