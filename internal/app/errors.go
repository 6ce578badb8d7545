package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrHarvestInProgress = errors.New("harvest run already in progress")
)
