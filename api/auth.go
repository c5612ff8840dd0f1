package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/legalbook/legalbook/internal/auth"
	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/gate"
	"github.com/legalbook/legalbook/internal/session"
	"github.com/legalbook/legalbook/internal/workflow"
)

type AuthHandler struct {
	service  auth.AuthUseCase
	flows    workflow.WorkflowUseCase
	sessions *session.Manager
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	UserType string `json:"user_type"`
}

type authResponse struct {
	RedirectTo string `json:"redirect_to"`
}

func NewAuthHandler(service auth.AuthUseCase, flows workflow.WorkflowUseCase, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{service: service, flows: flows, sessions: sessions}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.POST("/lawyer-register", h.registerLawyer)
	router.POST("/logout", h.logout)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.sessions.Issue(c, result.Tokens); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authResponse{RedirectTo: result.RedirectTo})
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Register(c.Request.Context(), domain.Registration{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		UserType: domain.UserType(req.UserType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.sessions.Issue(c, result.Tokens); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, authResponse{RedirectTo: result.RedirectTo})
}

func (h *AuthHandler) registerLawyer(c *gin.Context) {
	sess, err := h.sessions.Current(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	reg, err := parseLawyerRegistration(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.RegisterLawyer(c.Request.Context(), sess.AccessToken, reg)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			h.forceLogout(c)
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *AuthHandler) logout(c *gin.Context) {
	if sess, err := h.sessions.Current(c); err == nil {
		_ = h.flows.Discard(c.Request.Context(), sess.ID)
	}
	_ = h.sessions.Clear(c)
	c.JSON(http.StatusOK, authResponse{RedirectTo: gate.LoginPath})
}

func (h *AuthHandler) forceLogout(c *gin.Context) {
	_ = h.sessions.Clear(c)
	c.Redirect(http.StatusFound, gate.LoginPath)
	c.Abort()
}

// parseLawyerRegistration maps the wizard's multipart form onto the typed
// application. Field names follow the gateway contract.
func parseLawyerRegistration(c *gin.Context) (domain.LawyerRegistration, error) {
	var reg domain.LawyerRegistration

	reg.BarCouncilNumber = c.PostForm("bar_council_number")
	reg.Bio = c.PostForm("bio")

	var form struct {
		YearsExperience int   `form:"years_experience"`
		ConsultationFee int64 `form:"consultation_fee"`
	}
	if err := c.ShouldBind(&form); err != nil {
		return reg, err
	}
	reg.YearsExperience = form.YearsExperience
	reg.ConsultationFee = form.ConsultationFee

	reg.Languages = c.PostFormArray("languages")
	reg.Specializations = c.PostFormArray("specializations")
	reg.CourtIDs = c.PostFormArray("court_ids")

	var err error
	if reg.BarCertificate, err = readUpload(c, "bar_council_certificate"); err != nil {
		return reg, err
	}
	if reg.IDProof, err = readUpload(c, "id_proof"); err != nil {
		return reg, err
	}
	return reg, nil
}

func readUpload(c *gin.Context, field string) (domain.FileUpload, error) {
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		// Optional uploads: absence is not an error.
		return domain.FileUpload{}, nil
	}
	if err != nil {
		return domain.FileUpload{}, err
	}

	f, err := file.Open()
	if err != nil {
		return domain.FileUpload{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.FileUpload{}, err
	}
	return domain.FileUpload{Filename: file.Filename, Content: content}, nil
}

func respondError(c *gin.Context, err error) {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		status := gwErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": gwErr.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
