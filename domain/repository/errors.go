package repository

import "errors"

var (
	ErrNotFound        = errors.New("video not found")
	ErrInvalidFileCode = errors.New("file code is required")
	ErrEmptyQuery      = errors.New("search query is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownScope    = errors.New("unknown cache scope")
)
