// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested requirement does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a priority (tier, rank) collision with another requirement.
var ErrConflict = errors.New("priority conflict")

// ErrUnauthorized indicates a missing or mismatched actor role.
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation indicates a request body that does not match its schema.
var ErrValidation = errors.New("validation failed")

// ErrInvalidID indicates a requirement id that does not match REQ-<number>.
var ErrInvalidID = errors.New("invalid requirement id")

// ErrDuplicateID indicates the same requirement id appearing twice in one
// bulk request.
var ErrDuplicateID = errors.New("duplicate requirement id")
