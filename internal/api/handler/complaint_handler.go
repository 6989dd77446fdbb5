package handler

import (
	"net/http"

	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Description string `json:"description"`
	Ward        string `json:"ward" binding:"max=200"`
	ImageName   string `json:"imageName" binding:"max=500"`
}

type transitionRequest struct {
	Action              string `json:"action" binding:"required"`
	ResolutionImageName string `json:"resolutionImageName"`
	ResolutionNotes     string `json:"resolutionNotes" binding:"max=2000"`
}

type verificationRequest struct {
	Status       string `json:"status" binding:"required"`
	IsSuspicious bool   `json:"isSuspicious"`
}

// complaintView is a complaint with its current escalation state.
type complaintView struct {
	models.Complaint
	Escalation     escalation.Status  `json:"escalation"`
	AllowedActions []complaint.Action `json:"allowedActions"`
}

func (h *Handler) view(c models.Complaint) complaintView {
	actions := complaint.AllowedActions(c.Status)
	if actions == nil {
		actions = []complaint.Action{}
	}
	return complaintView{Complaint: c, Escalation: h.Service.EscalationFor(c), AllowedActions: actions}
}

func (h *Handler) views(cs []models.Complaint) []complaintView {
	out := make([]complaintView, len(cs))
	for i, c := range cs {
		out[i] = h.view(c)
	}
	return out
}

// SubmitComplaint handles POST /api/complaints.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "error.bad_request")
		return
	}

	created, err := h.Service.Submit(c.Request.Context(), req.Description, req.Ward, req.ImageName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(created))
}

// ListComplaints handles GET /api/complaints, most recent first.
func (h *Handler) ListComplaints(c *gin.Context) {
	c.JSON(http.StatusOK, h.views(h.Service.List()))
}

// GetComplaint handles GET /api/complaints/:id.
func (h *Handler) GetComplaint(c *gin.Context) {
	found, err := h.Service.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(found))
}

// TransitionComplaint handles POST /api/complaints/:id/transition.
func (h *Handler) TransitionComplaint(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "error.bad_request")
		return
	}
	action, err := complaint.ParseAction(req.Action)
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated, err := h.Service.Transition(c.Request.Context(), c.Param("id"), complaint.TransitionRequest{
		Action:              action,
		ResolutionImageName: req.ResolutionImageName,
		ResolutionNotes:     req.ResolutionNotes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(updated))
}

// RecordVerification handles PUT /api/complaints/:id/verification.
func (h *Handler) RecordVerification(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "error.bad_request")
		return
	}

	updated, err := h.Service.RecordVerification(c.Request.Context(), c.Param("id"), models.Verification{
		Status:       req.Status,
		IsSuspicious: req.IsSuspicious,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(updated))
}

// OfficerComplaints handles GET /api/officer/complaints: High urgency first, then newest.
func (h *Handler) OfficerComplaints(c *gin.Context) {
	c.JSON(http.StatusOK, h.views(h.Service.ListForOfficerView()))
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.DashboardSnapshot())
}

// Escalations handles GET /api/escalations, oldest first.
func (h *Handler) Escalations(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Escalations())
}
