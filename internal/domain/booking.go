package domain

import (
	"strconv"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// BookingDraftRequest carries the user input that opens a draft. Validated
// once at the boundary before it ever reaches the gateway.
type BookingDraftRequest struct {
	LawyerID        string    `json:"lawyer_id"`
	CaseDescription string    `json:"case_description"`
	PreferredTime   time.Time `json:"preferred_time"`
}

// BookingDraft is the gateway-computed proposal. The client never mutates it;
// the draft id is consumed exactly once by confirmation.
type BookingDraft struct {
	DraftID         string `json:"booking_draft_id"`
	AISummary       string `json:"ai_summary"`
	ConsultationFee int64  `json:"consultation_fee"`
}

type Booking struct {
	ID              string        `json:"id"`
	LawyerID        string        `json:"lawyer_id"`
	ClientID        string        `json:"client_id"`
	CaseDescription string        `json:"case_description"`
	AISummary       string        `json:"ai_summary"`
	ConsultationFee int64         `json:"consultation_fee"`
	Status          BookingStatus `json:"status"`
	PreferredTime   time.Time     `json:"preferred_time"`
	CreatedAt       time.Time     `json:"created_at"`
}

// FormatFee renders a fee in rupees with Indian digit grouping, e.g. 2500
// becomes "₹2,500" and 150000 becomes "₹1,50,000".
func FormatFee(fee int64) string {
	digits := strconv.FormatInt(fee, 10)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var b strings.Builder
	n := len(digits)
	for i, d := range digits {
		b.WriteRune(d)
		rest := n - i - 1
		if rest == 0 {
			break
		}
		if rest == 3 || (rest > 3 && rest%2 == 1) {
			b.WriteByte(',')
		}
	}

	out := "₹" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}
