package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates the portal rejected the supplied
	// identifier/secret. The only error a caller is expected to retry with
	// fresh credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginTimeout indicates neither a successful navigation nor an inline
	// error appeared within the login wait bound.
	ErrLoginTimeout = errors.New("login timed out")
)

// LoginError carries the portal's own error text when it does not match any
// known credential-failure keyword.
type LoginError struct {
	Text string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %s", e.Text)
}
