// Package common defines shared constants and sentinel errors used across
// the gophchat server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorValidation       = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors. Invalid covers a bad signature or a credential of the wrong class.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed token")

	// ErrDeliveryFailed reports a failed live push. It is logged, never surfaced to a sender.
	ErrDeliveryFailed = errors.New("live delivery failed")
)
