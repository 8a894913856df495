package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/middleware"
	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/service/appointment"
	"github.com/medbridge/portal-api/pkg/auth"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("/book", h.Book)
		appointments.GET("", h.ListMine)
		appointments.GET("/:id", h.Get)

		doctor := appointments.Group("/doctor",
			authMW.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
		{
			doctor.GET("/appointments", h.DoctorQueue)
			doctor.PATCH("/appointments/:id/status", h.UpdateStatus)
		}
	}
}

// Book creates a pending appointment carrying the patient's current risk
// snapshot.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

// ListMine returns the caller's own appointments.
func (h *Handler) ListMine(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	appointments, err := h.service.ListForPatient(c.Request.Context(), principal.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

// DoctorQueue returns the doctor's pending appointments in triage order.
func (h *Handler) DoctorQueue(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	queue, err := h.service.DoctorQueue(c.Request.Context(), principal.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, queue)
}

// UpdateStatus moves an appointment along the lifecycle graph.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Transition(c.Request.Context(), id, req.Status, middleware.PrincipalFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}
