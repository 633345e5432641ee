package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrMatchNotFound     = errors.New("match not found")
	ErrPeerDisconnected  = errors.New("peer disconnected")
	ErrProtocol          = errors.New("protocol violation")
	ErrConnectionFailure = errors.New("connection failure")
)
