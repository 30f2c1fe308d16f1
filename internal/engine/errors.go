package engine

import "errors"

var (
	// ErrQueryFailed indicates at least one backend could not be queried.
	ErrQueryFailed = errors.New("backend query failed")

	// ErrBackendRequired indicates an operation needs exactly one backend
	// but none or several were selected.
	ErrBackendRequired = errors.New("a single backend must be selected")
)
