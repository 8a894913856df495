package clinical

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/middleware"
	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/service/clinical"
	"github.com/medbridge/portal-api/internal/service/risk"
	"github.com/medbridge/portal-api/pkg/auth"
	apperrors "github.com/medbridge/portal-api/pkg/errors"
	"github.com/medbridge/portal-api/pkg/httputil"
)

type Handler struct {
	service *clinical.Service
	riskSvc *risk.Service
}

func NewHandler(service *clinical.Service, riskSvc *risk.Service) *Handler {
	return &Handler{service: service, riskSvc: riskSvc}
}

// RegisterRoutes mounts the clinical intake surface. Writes are limited
// to clinical staff; every committed write triggers a risk recompute.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	group := r.Group("/clinical")
	{
		staff := group.Group("", authMW.RequireRole(
			auth.RoleDoctor, auth.RoleHealthWorker, auth.RoleAdmin))
		{
			staff.POST("/vitals", h.RecordVitals)
			staff.POST("/labs", h.RecordLabReport)
		}
		group.GET("/patients/:id/summary", h.GetSummary)
	}
}

func (h *Handler) RecordVitals(c *gin.Context) {
	var req model.CreateVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	vitals, err := h.service.RecordVitals(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, vitals)
}

func (h *Handler) RecordLabReport(c *gin.Context) {
	var req model.CreateLabReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	report, err := h.service.RecordLabReport(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, report)
}

// GetSummary returns the patient's current AI summary. A patient may
// only read their own; clinical staff may read any.
func (h *Handler) GetSummary(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}

	principal := middleware.PrincipalFrom(c)
	if principal.Role == auth.RolePatient && principal.ID != patientID {
		httputil.RespondWithError(c, apperrors.Forbidden("summary does not belong to caller"))
		return
	}

	summary, err := h.riskSvc.Summary(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if summary == nil {
		httputil.RespondWithError(c, apperrors.NotFound("summary", nil))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, summary)
}
