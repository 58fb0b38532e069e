package core

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotJoined    = errors.New("connection has not joined a review")
	ErrRoomMismatch = errors.New("review id does not match the joined review")
	ErrRoomFull     = errors.New("review room is full")
	ErrTooManyRooms = errors.New("too many active review rooms")
	ErrRateLimited  = errors.New("too many join attempts")

	// Delivery failures. Dropped frames are never retried.
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)
