package util

import "errors"

var (
	ErrInvalidWatchToken  = errors.New("invalid watch token")
	ErrAuthTokenMissing   = errors.New("auth token missing or expired")
	ErrXSRFTokenMissing   = errors.New("xsrf token missing")
	ErrCredentialMissing  = errors.New("watch token not captured yet")
	ErrCredentialRejected = errors.New("watch token rejected by server")
	ErrSubmissionFailed   = errors.New("watched submission failed")
	ErrLoginFailed        = errors.New("login failed")
	ErrStateKeyNotFound   = errors.New("state key not found")
)
