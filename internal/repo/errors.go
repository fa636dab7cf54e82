// Package repo holds the sentinel errors shared by every store backend so
// handlers stay agnostic of which one is wired in.
package repo

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)
