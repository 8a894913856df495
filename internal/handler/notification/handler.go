package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/middleware"
	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/service/notification"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the notification surface. mark-all-read is
// registered before the :id routes so gin does not capture it as an id.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.PATCH("/mark-all-read", h.MarkAllRead)
		notifications.GET("/:id", h.Get)
		notifications.PATCH("/:id/read", h.MarkRead)
		notifications.PATCH("/:id/unread", h.MarkUnread)
		notifications.PATCH("/:id", h.Patch)
		notifications.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	notifications, err := h.service.List(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, notifications)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid notification ID", err))
		return
	}

	n, err := h.service.Get(c.Request.Context(), id, middleware.PrincipalFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) MarkRead(c *gin.Context) {
	h.setFlag(c, func(id uuid.UUID) (*model.Notification, error) {
		return h.service.MarkRead(c.Request.Context(), id, middleware.PrincipalFrom(c))
	})
}

func (h *Handler) MarkUnread(c *gin.Context) {
	h.setFlag(c, func(id uuid.UUID) (*model.Notification, error) {
		return h.service.MarkUnread(c.Request.Context(), id, middleware.PrincipalFrom(c))
	})
}

func (h *Handler) Patch(c *gin.Context) {
	var req model.PatchNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	h.setFlag(c, func(id uuid.UUID) (*model.Notification, error) {
		return h.service.Patch(c.Request.Context(), id, middleware.PrincipalFrom(c), &req)
	})
}

func (h *Handler) setFlag(c *gin.Context, fn func(id uuid.UUID) (*model.Notification, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid notification ID", err))
		return
	}

	n, err := fn(id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	count, err := h.service.MarkAllRead(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"updatedCount": count})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid notification ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.PrincipalFrom(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"deleted": true})
}
