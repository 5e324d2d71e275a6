package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
//
// ErrInvalidCredentials deliberately covers both unknown-email and
// wrong-password, and ErrUnauthorized covers every token failure mode;
// the merging is a security property, not an oversight.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrUnavailable        = errors.New("service unavailable")
)
