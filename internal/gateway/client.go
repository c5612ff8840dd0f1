package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/domain"
	"go.uber.org/zap"
)

// Client talks to the upstream API gateway. The request and response shapes
// are fixed by the gateway contract and must not drift.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.GatewayConfig, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Login submits form-encoded credentials. The gateway expects the email in
// the "username" field.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tokens domain.TokenPair
	err := c.do(ctx, http.MethodPost, "/login", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "", &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.TokenPair, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return nil, err
	}

	var tokens domain.TokenPair
	if err := c.do(ctx, http.MethodPost, "/register", nil, bytes.NewReader(body), "application/json", "", &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// RegisterLawyer maps the typed application onto the gateway's multipart
// contract field by field. JSON-encoded list fields mirror what the gateway
// parses on its side.
func (c *Client) RegisterLawyer(ctx context.Context, accessToken string, reg domain.LawyerRegistration) (map[string]any, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"bar_council_number": reg.BarCouncilNumber,
		"years_experience":   strconv.Itoa(reg.YearsExperience),
		"bio":                reg.Bio,
		"consultation_fee":   strconv.FormatInt(reg.ConsultationFee, 10),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	languages, err := json.Marshal(reg.Languages)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("languages", string(languages)); err != nil {
		return nil, err
	}

	specs := make([]map[string]string, 0, len(reg.Specializations))
	for _, id := range reg.Specializations {
		specs = append(specs, map[string]string{"specialization_id": id})
	}
	specializations, err := json.Marshal(specs)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("specializations", string(specializations)); err != nil {
		return nil, err
	}

	courts, err := json.Marshal(reg.CourtIDs)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("court_ids", string(courts)); err != nil {
		return nil, err
	}

	files := []struct {
		field  string
		upload domain.FileUpload
	}{
		{"bar_council_certificate", reg.BarCertificate},
		{"id_proof", reg.IDProof},
	}
	for _, f := range files {
		if len(f.upload.Content) == 0 {
			continue
		}
		part, err := w.CreateFormFile(f.field, f.upload.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.upload.Content); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	var created map[string]any
	if err := c.do(ctx, http.MethodPost, "/lawyers/register", nil, &buf, w.FormDataContentType(), accessToken, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, "", accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) CreateDraft(ctx context.Context, accessToken string, req domain.BookingDraftRequest) (*domain.BookingDraft, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var draft domain.BookingDraft
	if err := c.do(ctx, http.MethodPost, "/bookings/create", nil, bytes.NewReader(body), "application/json", accessToken, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *Client) ConfirmBooking(ctx context.Context, accessToken, draftID string) (map[string]any, error) {
	query := url.Values{}
	query.Set("booking_draft_id", draftID)

	var confirmation map[string]any
	if err := c.do(ctx, http.MethodPost, "/bookings/confirm", query, nil, "", accessToken, &confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (c *Client) ListBookings(ctx context.Context, accessToken string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/", nil, nil, "", accessToken, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) GetBooking(ctx context.Context, accessToken, id string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/"+id, nil, nil, "", accessToken, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, accessToken, id, status, reason string) (*domain.Booking, error) {
	query := url.Values{}
	query.Set("status_in", status)
	if reason != "" {
		query.Set("reason", reason)
	}

	var booking domain.Booking
	if err := c.do(ctx, http.MethodPatch, "/bookings/"+id+"/status", query, nil, "", accessToken, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType, accessToken string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readDetail(resp.Body)
		c.log.Debug("gateway error response", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("detail", detail))
		return &domain.GatewayError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response %s %s: %w", method, path, err)
	}
	return nil
}

// readDetail pulls the gateway's {"detail": "..."} message when present.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
