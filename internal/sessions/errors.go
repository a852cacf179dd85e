package sessions

import "errors"

var (
	ErrNotFound           = errors.New("session not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrSubSessionNotFound = errors.New("sub-session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrInvalidInput       = errors.New("invalid input")
)
