// Package apperr holds the sentinel errors shared by the store, service and
// transport layers.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)
