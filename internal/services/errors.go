package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
