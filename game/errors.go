package game

import "errors"

var (
	ErrRoomNotFound     = errors.New("not-found")
	ErrRoomFull         = errors.New("full")
	ErrAlreadyStarted   = errors.New("already-started")
	ErrUnknownVariant   = errors.New("unknown-variant")
	ErrNotEnoughPlayers = errors.New("not-enough-players")
)
