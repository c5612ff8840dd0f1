package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/gate"
	"github.com/legalbook/legalbook/internal/session"
	"github.com/legalbook/legalbook/internal/workflow"
)

type BookingHandler struct {
	service  workflow.WorkflowUseCase
	sessions *session.Manager
}

type openRequest struct {
	LawyerID   string `json:"lawyer_id"`
	LawyerName string `json:"lawyer_name"`
}

type summaryRequest struct {
	CaseDescription string `json:"case_description"`
	PreferredTime   string `json:"preferred_time"`
}

type draftView struct {
	DraftID         string `json:"booking_draft_id"`
	AISummary       string `json:"ai_summary"`
	ConsultationFee int64  `json:"consultation_fee"`
	FeeDisplay      string `json:"fee_display"`
}

type workflowResponse struct {
	State           string                `json:"state"`
	LawyerID        string                `json:"lawyer_id,omitempty"`
	LawyerName      string                `json:"lawyer_name,omitempty"`
	CaseDescription string                `json:"case_description,omitempty"`
	PreferredTime   string                `json:"preferred_time,omitempty"`
	Draft           *draftView            `json:"draft,omitempty"`
	Error           *domain.WorkflowError `json:"error,omitempty"`
	Message         string                `json:"message,omitempty"`
}

func NewBookingHandler(service workflow.WorkflowUseCase, sessions *session.Manager) *BookingHandler {
	return &BookingHandler{service: service, sessions: sessions}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/open", h.open)
	router.POST("/summary", h.summary)
	router.POST("/back", h.back)
	router.POST("/confirm", h.confirm)
	router.POST("/close", h.close)
}

func (h *BookingHandler) open(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inst, err := h.service.Open(c.Request.Context(), sess.ID, req.LawyerID, req.LawyerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toWorkflowResponse(inst))
}

func (h *BookingHandler) summary(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var preferredTime *time.Time
	if req.PreferredTime != "" {
		t, err := time.Parse(time.RFC3339, req.PreferredTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_time must be RFC3339"})
			return
		}
		preferredTime = &t
	}

	inst, err := h.service.GenerateSummary(c.Request.Context(), sess, req.CaseDescription, preferredTime)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkflowResponse(inst))
}

func (h *BookingHandler) back(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	inst, err := h.service.Back(c.Request.Context(), sess.ID)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkflowResponse(inst))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	inst, err := h.service.Confirm(c.Request.Context(), sess)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkflowResponse(inst))
}

func (h *BookingHandler) close(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	if err := h.service.Close(c.Request.Context(), sess.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, workflowResponse{State: string(domain.WorkflowStateIdle)})
}

func (h *BookingHandler) currentSession(c *gin.Context) (*domain.Session, bool) {
	sess, err := h.sessions.Current(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	return sess, true
}

func (h *BookingHandler) respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthExpired):
		_ = h.sessions.Clear(c)
		c.Redirect(http.StatusFound, gate.LoginPath)
		c.Abort()
	case errors.Is(err, domain.ErrWorkflowNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrActionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		// Anything left is the store or another dependency failing, not a
		// caller mistake.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toWorkflowResponse(inst *domain.WorkflowInstance) workflowResponse {
	if inst == nil {
		return workflowResponse{State: string(domain.WorkflowStateIdle)}
	}

	resp := workflowResponse{
		State:           string(inst.State),
		LawyerID:        inst.LawyerID,
		LawyerName:      inst.LawyerName,
		CaseDescription: inst.CaseDescription,
		Error:           inst.LastError,
	}
	if inst.PreferredTime != nil {
		resp.PreferredTime = inst.PreferredTime.Format(time.RFC3339)
	}
	if inst.Draft != nil {
		resp.Draft = &draftView{
			DraftID:         inst.Draft.DraftID,
			AISummary:       inst.Draft.AISummary,
			ConsultationFee: inst.Draft.ConsultationFee,
			FeeDisplay:      domain.FormatFee(inst.Draft.ConsultationFee),
		}
	}
	if inst.State == domain.WorkflowStateSuccess {
		resp.Message = fmt.Sprintf("Booking confirmed with %s.", inst.LawyerName)
	}
	return resp
}
