// Package sentinel holds the sentinel errors stores return for factual
// resource states. Services translate them into coded domain errors at the
// operation boundary.
//
//   - ErrNotFound: entity absent from the store
//   - ErrConflict: a uniqueness invariant blocked the write (duplicate
//     pending invitation, batch already contributed, membership already
//     active)
//   - ErrExpired: a time-bounded resource crossed its expiry
//   - ErrInvalidState: entity in the wrong state for the operation
//   - ErrUnavailable: store or downstream temporarily unreachable
//
// Validation of caller input belongs in pkg/domain-errors, not here.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
