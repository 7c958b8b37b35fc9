package apperr

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoLocator means a caller supplied an asset with no content locator at all.
	ErrNoLocator = errors.New("no content locator supplied")
	// ErrObjectNotFound means a locator was supplied but the stored object does not exist.
	ErrObjectNotFound = errors.New("stored object not found")
	// ErrLastMainAsset guards the last completed asset in the "main" group of a version.
	ErrLastMainAsset = errors.New("cannot remove the last completed main asset of a version")
)
