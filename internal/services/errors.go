package services

import "errors"

// Dashboard service errors
var (
	// ErrDatasetNotLoaded is returned before the first successful build.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	// ErrReloadInProgress is returned when a reload is requested while
	// another one is still running.
	ErrReloadInProgress = errors.New("dataset reload already in progress")
	// ErrInvalidPage reports a negative offset or limit.
	ErrInvalidPage = errors.New("invalid page")
)
