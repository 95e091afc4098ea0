package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/mail-triage/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies where an email entered the system.
type SourceType string

const (
	SourceTypeIMAP  SourceType = "imap"
	SourceTypeHTTP  SourceType = "http"
	SourceTypePaste SourceType = "paste"
)

// Fetcher is a mailbox that can be polled for recent mail.
type Fetcher interface {
	// Type returns the source type identifier.
	Type() SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchRecent returns up to limit of the newest messages received
	// on or after since, oldest first.
	FetchRecent(ctx context.Context, since time.Time, limit int) ([]model.IncomingEmail, error)
}
