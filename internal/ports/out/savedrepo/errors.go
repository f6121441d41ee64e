package savedrepo

import "errors"

var (
	// ErrNotFound indicates the saved link does not exist.
	ErrNotFound = errors.New("saved link not found")

	// ErrAlreadyExists indicates a link already exists with the provided ID.
	ErrAlreadyExists = errors.New("saved link already exists")
)
