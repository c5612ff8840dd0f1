package domain

import (
	"errors"
	"fmt"
)

// ErrAuthExpired is returned by the gateway client whenever the upstream
// answers 401. Handlers react by clearing the session and sending the browser
// back to the login page.
var ErrAuthExpired = errors.New("session expired")

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrWorkflowNotFound  = errors.New("workflow not open")
	ErrActionInFlight    = errors.New("another request is in flight")
	ErrInvalidTransition = errors.New("invalid workflow transition")
)

// GatewayError carries the upstream status and its "detail" message so the
// workflow can surface the gateway's own wording to the user.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}
