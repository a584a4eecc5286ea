package models

import "errors"

var (
	// ErrNotFound is returned by stores when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNullValue is returned by Record.Float when the field holds a null marker.
	ErrNullValue = errors.New("null value")
)
