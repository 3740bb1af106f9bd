package domain

import "errors"

var (
	// ErrInvalidRequest means a required field was missing; nothing was mutated.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound means the referenced room or participant does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDeliveryFailed means a send to one connection failed. It is never
	// returned to the sender of the triggering event.
	ErrDeliveryFailed = errors.New("delivery failed")
)
