package model

import "errors"

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrMalformedRequest       = errors.New("malformed request")
	ErrUnsupportedInteraction = errors.New("unsupported interaction type")
	ErrUnknownCommand         = errors.New("unknown command")
	ErrInstanceNotFound       = errors.New("instance not found")
)
