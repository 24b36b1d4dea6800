package db

import "errors"

var (
	// ErrValidation marks a job spec rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrJobNotFound is returned when no job matches (accountKey, jobID).
	ErrJobNotFound = errors.New("job not found")

	// ErrAccountNotFound is returned when the account record does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidTransition is returned when a state-machine operation is
	// invoked from a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid job status transition")
)
