package auth

import (
	"context"
	"errors"

	"github.com/legalbook/legalbook/internal/domain"
	"go.uber.org/zap"
)

// Landing routes decided after login from the user profile.
const (
	RouteDashboard       = "/dashboard"
	RouteLawyerDashboard = "/dashboard/lawyer"
	RouteAdmin           = "/admin"
	RouteLawyerWizard    = "/auth/lawyer-register"
)

type AuthUseCase interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (*RegisterResult, error)
	RegisterLawyer(ctx context.Context, accessToken string, reg domain.LawyerRegistration) (map[string]any, error)
}

type Gateway interface {
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.TokenPair, error)
	RegisterLawyer(ctx context.Context, accessToken string, reg domain.LawyerRegistration) (map[string]any, error)
	CurrentUser(ctx context.Context, accessToken string) (*domain.UserProfile, error)
}

type LoginResult struct {
	Tokens     *domain.TokenPair
	RedirectTo string
}

type RegisterResult struct {
	Tokens     *domain.TokenPair
	RedirectTo string
}

type Service struct {
	gateway Gateway
	log     *zap.Logger
}

func NewService(gateway Gateway, log *zap.Logger) *Service {
	return &Service{gateway: gateway, log: log}
}

// Login exchanges credentials for tokens and decides the landing route from
// the current user profile. A profile fetch failure falls back to the client
// dashboard rather than failing the login.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	tokens, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	redirect := RouteDashboard
	user, err := s.gateway.CurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		s.log.Warn("fetch current user after login", zap.Error(err))
	} else if user.UserType == domain.UserTypeLawyer {
		redirect = RouteLawyerDashboard
	} else if user.IsSuperuser {
		redirect = RouteAdmin
	}

	return &LoginResult{Tokens: tokens, RedirectTo: redirect}, nil
}

// Register creates the base account for both user types. Lawyers continue
// into the onboarding wizard before their profile is complete.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (*RegisterResult, error) {
	if reg.Email == "" || reg.Password == "" || reg.FullName == "" {
		return nil, errors.New("email, password and full name are required")
	}
	if reg.UserType != domain.UserTypeClient && reg.UserType != domain.UserTypeLawyer {
		return nil, errors.New("user type must be client or lawyer")
	}

	tokens, err := s.gateway.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	redirect := RouteDashboard
	if reg.UserType == domain.UserTypeLawyer {
		redirect = RouteLawyerWizard
	}
	return &RegisterResult{Tokens: tokens, RedirectTo: redirect}, nil
}

// RegisterLawyer validates the typed application once before it is mapped to
// the gateway's multipart form.
func (s *Service) RegisterLawyer(ctx context.Context, accessToken string, reg domain.LawyerRegistration) (map[string]any, error) {
	if reg.BarCouncilNumber == "" {
		return nil, errors.New("bar council number is required")
	}
	if reg.YearsExperience < 0 {
		return nil, errors.New("years of experience cannot be negative")
	}
	if reg.ConsultationFee < 0 {
		return nil, errors.New("consultation fee cannot be negative")
	}
	if len(reg.Specializations) == 0 {
		return nil, errors.New("at least one specialization is required")
	}

	return s.gateway.RegisterLawyer(ctx, accessToken, reg)
}

var _ AuthUseCase = (*Service)(nil)
