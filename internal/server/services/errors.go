// Package services contains server-side business logic: account management
// and direct messaging. Services own transactions and translate repository
// errors into the sentinels of package common.
package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/media"
)

// ValidationError carries a message meant for the client. It matches
// common.ErrorValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// uploadError turns a media failure into a validation error when the client
// sent bad data, and into an internal error otherwise.
func uploadError(err error) error {
	switch {
	case errors.Is(err, media.ErrUnsupportedFormat):
		return invalid("Unsupported image format")
	case errors.Is(err, media.ErrImageTooLarge):
		return invalid("Image is too large")
	case errors.Is(err, media.ErrInvalidDataURL):
		return invalid("Invalid image data")
	default:
		return fmt.Errorf("%w: upload: %v", common.ErrorInternal, err)
	}
}
