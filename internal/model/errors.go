package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrWrongPassword   = errors.New("wrong password")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrSeatUnavailable = errors.New("seat is already taken")
	ErrNotInRoom       = errors.New("connection is not in room")

	// Transport errors
	ErrConnNotFound = errors.New("connection not found")
)
