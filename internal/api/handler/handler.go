// Package handler exposes the complaint service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/localization"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the collaborators of the HTTP routes.
type Handler struct {
	Service   *complaint.Service
	Localizer *localization.Localizer
	Logger    *zap.Logger
}

func NewHandler(svc *complaint.Service, localizer *localization.Localizer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Localizer: localizer, Logger: logger}
}

// RegisterRoutes mounts the API on r. submitGuard runs before the
// submission handler, typically the rate limiter.
func (h *Handler) RegisterRoutes(r *gin.Engine, submitGuard ...gin.HandlerFunc) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	{
		api.POST("/complaints", append(submitGuard, h.SubmitComplaint)...)
		api.GET("/complaints", h.ListComplaints)
		api.GET("/complaints/:id", h.GetComplaint)
		api.POST("/complaints/:id/transition", h.TransitionComplaint)
		api.PUT("/complaints/:id/verification", h.RecordVerification)

		api.GET("/officer/complaints", h.OfficerComplaints)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/escalations", h.Escalations)
	}
}

// lang picks the response language from Accept-Language.
func (h *Handler) lang(c *gin.Context) string {
	return h.Localizer.FromAcceptLanguage(c.GetHeader("Accept-Language"))
}

func (h *Handler) abort(c *gin.Context, status int, key string) {
	c.AbortWithStatusJSON(status, gin.H{"error": h.Localizer.GetString(h.lang(c), key)})
}

// respondError maps a service error to a status code and localized message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, key := http.StatusInternalServerError, "error.internal"
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		status, key = http.StatusNotFound, "error.not_found"
	case errors.Is(err, complaint.ErrInvalidTransition):
		status, key = http.StatusConflict, "error.invalid_transition"
	case errors.Is(err, complaint.ErrUnknownAction):
		status, key = http.StatusUnprocessableEntity, "error.unknown_action"
	case errors.Is(err, complaint.ErrResolutionImageRequired):
		status, key = http.StatusUnprocessableEntity, "error.resolution_image_required"
	case errors.Is(err, complaint.ErrEmptyDescription):
		status, key = http.StatusUnprocessableEntity, "error.empty_description"
	case errors.Is(err, complaint.ErrPersistence):
		status, key = http.StatusServiceUnavailable, "error.persistence"
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	h.abort(c, status, key)
}
