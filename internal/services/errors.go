package services

import "errors"

var (
	// ErrNotConnected is returned by operations that require a live session.
	ErrNotConnected = errors.New("player not connected")
	// ErrKitNotFound marks an operation against a kit that does not exist.
	ErrKitNotFound = errors.New("kit not found")
	// ErrKitNotAllowed marks an equip attempt the player is not entitled to.
	ErrKitNotAllowed = errors.New("kit not allowed")
)
