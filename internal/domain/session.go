package domain

import "time"

// TokenPair is what the gateway issues at login and registration.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is a browser session held in the durable store. The access token is
// additionally mirrored into the "token" cookie so the route gate can read it
// without touching the database.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type UserType string

const (
	UserTypeClient UserType = "client"
	UserTypeLawyer UserType = "lawyer"
)

type UserProfile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Phone       string   `json:"phone"`
	UserType    UserType `json:"user_type"`
	IsSuperuser bool     `json:"is_superuser"`
}

type Registration struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone"`
	UserType UserType `json:"user_type"`
}

// LawyerRegistration is the typed form behind the lawyer onboarding wizard.
// Field names map one to one onto the gateway's multipart contract.
type LawyerRegistration struct {
	BarCouncilNumber string
	YearsExperience  int
	Bio              string
	ConsultationFee  int64
	Languages        []string
	Specializations  []string
	CourtIDs         []string

	BarCertificate FileUpload
	IDProof        FileUpload
}

type FileUpload struct {
	Filename string
	Content  []byte
}
