package models

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor is not the owner of the course.
	ErrForbidden = errors.New("you do not have rights to manage this course")
	// ErrValidation represents user input validation failures.
	ErrValidation = errors.New("validation error")
)
