package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/gate"
	"github.com/legalbook/legalbook/internal/session"
)

// BookingViews is the slice of the gateway the gated pages need.
type BookingViews interface {
	ListBookings(ctx context.Context, accessToken string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, accessToken, id string) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, accessToken, id, status, reason string) (*domain.Booking, error)
}

// ViewsHandler serves the already-computed view models behind the protected
// prefixes. The gate middleware has run before any of these handlers.
type ViewsHandler struct {
	views    BookingViews
	sessions *session.Manager
}

type bookingView struct {
	ID              string `json:"id"`
	LawyerID        string `json:"lawyer_id"`
	CaseDescription string `json:"case_description"`
	AISummary       string `json:"ai_summary"`
	ConsultationFee int64  `json:"consultation_fee"`
	FeeDisplay      string `json:"fee_display"`
	Status          string `json:"status"`
	PreferredTime   string `json:"preferred_time"`
}

func NewViewsHandler(views BookingViews, sessions *session.Manager) *ViewsHandler {
	return &ViewsHandler{views: views, sessions: sessions}
}

func (h *ViewsHandler) RegisterDashboard(router *gin.RouterGroup) {
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.PATCH("/bookings/:id/status", h.updateStatus)
}

func (h *ViewsHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/bookings", h.list)
}

func (h *ViewsHandler) list(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	bookings, err := h.views.ListBookings(c.Request.Context(), sess.AccessToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, toBookingView(b))
	}
	c.JSON(http.StatusOK, views)
}

func (h *ViewsHandler) get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	booking, err := h.views.GetBooking(c.Request.Context(), sess.AccessToken, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingView(*booking))
}

func (h *ViewsHandler) updateStatus(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	status := c.Query("status_in")
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status_in is required"})
		return
	}

	booking, err := h.views.UpdateBookingStatus(c.Request.Context(), sess.AccessToken, c.Param("id"), status, c.Query("reason"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingView(*booking))
}

func (h *ViewsHandler) session(c *gin.Context) (*domain.Session, bool) {
	sess, err := h.sessions.Current(c)
	if err != nil {
		// Token cookie passed the gate but the durable row is gone; treat as
		// logged out.
		_ = h.sessions.Clear(c)
		c.Redirect(http.StatusFound, gate.LoginPath)
		c.Abort()
		return nil, false
	}
	return sess, true
}

func (h *ViewsHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrAuthExpired) {
		_ = h.sessions.Clear(c)
		c.Redirect(http.StatusFound, gate.LoginPath)
		c.Abort()
		return
	}
	respondError(c, err)
}

func toBookingView(b domain.Booking) bookingView {
	view := bookingView{
		ID:              b.ID,
		LawyerID:        b.LawyerID,
		CaseDescription: b.CaseDescription,
		AISummary:       b.AISummary,
		ConsultationFee: b.ConsultationFee,
		FeeDisplay:      domain.FormatFee(b.ConsultationFee),
		Status:          string(b.Status),
	}
	if !b.PreferredTime.IsZero() {
		view.PreferredTime = b.PreferredTime.Format(time.RFC3339)
	}
	return view
}
