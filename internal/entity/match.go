package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

const (
	// MinPliesToWin - the first mover can complete a line on the 5th ply at the earliest.
	MinPliesToWin = 5
	MaxPlies      = BoardSize
)

type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWin        Outcome = "win"
	OutcomeDraw       Outcome = "draw"
	OutcomeAborted    Outcome = "aborted"
)

// PlayerID is assigned in arrival order when two connections are paired.
type PlayerID uint32

const (
	FirstPlayer  PlayerID = 0
	SecondPlayer PlayerID = 1
)

func (that PlayerID) Mark() Cell {
	if that == FirstPlayer {
		return MarkX
	}
	return MarkO
}

func (that PlayerID) Opponent() PlayerID {
	return 1 - that
}

// Match holds the state of one game between two paired peers.
type Match struct {
	ID        string    `json:"id"`
	Board     Board     `json:"board"`
	Turn      PlayerID  `json:"turn"`
	Plies     int       `json:"plies"`
	Outcome   Outcome   `json:"outcome"`
	Winner    *PlayerID `json:"winner,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

func NewMatch(id string) *Match {
	return &Match{
		ID:        id,
		Turn:      FirstPlayer,
		Outcome:   OutcomeInProgress,
		StartedAt: time.Now().UTC(),
	}
}

// MakeTurn - validates and applies a move, then settles the outcome or passes the turn.
func (that *Match) MakeTurn(player PlayerID, move int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != player {
		return apperror.ErrNotYourTurn
	}

	if move < 0 || move >= BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, move)
	}

	if !that.Board.IsLegal(move) {
		return apperror.ErrCellOccupied
	}

	that.Board.Apply(move, player.Mark())
	that.Plies++

	switch {
	case that.Plies >= MinPliesToWin && that.Board.CheckWin(move):
		that.Outcome = OutcomeWin
		that.Winner = &player
	case that.Plies == MaxPlies:
		that.Outcome = OutcomeDraw
	default:
		that.Turn = player.Opponent()
	}

	return nil
}

// IsDraw - the board filled up and the last move did not win.
func (that *Match) IsDraw() bool {
	return that.Board.IsFull() && that.Outcome != OutcomeWin && that.Outcome != OutcomeAborted
}

func (that *Match) IsFinished() bool {
	return that.Outcome != OutcomeInProgress
}

// Abort - ends the match without a result. A result settled by the last move
// is dropped too, since the peers never learned about it.
func (that *Match) Abort() {
	that.Outcome = OutcomeAborted
	that.Winner = nil
}
