package points

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyProcessed   = errors.New("request already processed")
	ErrInvalidInput       = errors.New("invalid input")
)
