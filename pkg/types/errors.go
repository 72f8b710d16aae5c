package types

import "errors"

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Post errors.
var (
	ErrNotFound     = errors.New("post not found")
	ErrInvalidSlug  = errors.New("invalid slug")
	ErrInvalidTitle = errors.New("invalid title")
	ErrDuplicate    = errors.New("slug already exists")
	ErrInvalidPost  = errors.New("invalid post data")
)
