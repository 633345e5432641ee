package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/peer"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
)

const saveTimeout = time.Second

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	DeleteByID(ctx context.Context, id string) error
}

type playerCounter interface {
	Add(delta int) int
}

// Coordinator runs one match between two paired peers. It owns both peers and
// the match state, nothing else touches them while Run is in progress.
type Coordinator struct {
	logger  *slog.Logger
	match   *entity.Match
	peers   [2]*peer.Peer
	repo    matchRepo
	players playerCounter
}

func New(logger *slog.Logger, id string, first, second *peer.Peer, repo matchRepo, players playerCounter) *Coordinator {
	return &Coordinator{
		logger:  logger.With("component", "match", "match_id", id),
		match:   entity.NewMatch(id),
		peers:   [2]*peer.Peer{first, second},
		repo:    repo,
		players: players,
	}
}

// Run - plays the match to the end. Any I/O failure or cancellation of ctx
// aborts the match. Both peers are closed when Run returns.
func (that *Coordinator) Run(ctx context.Context) *entity.Match {
	log := that.logger.With("method", "Run")

	stop := context.AfterFunc(ctx, that.closePeers)
	defer func() {
		stop()
		that.finish(context.WithoutCancel(ctx))
	}()

	log.Info("match started", "first", that.peers[0].Addr(), "second", that.peers[1].Addr())

	if err := that.play(ctx); err != nil {
		that.match.Abort()
		log.Warn("match aborted", "error", err, "plies", that.match.Plies)

		return that.match
	}

	if that.match.Winner != nil {
		log = log.With("winner", *that.match.Winner)
	}

	log.Info("match finished", "outcome", that.match.Outcome, "plies", that.match.Plies)

	return that.match
}

func (that *Coordinator) play(ctx context.Context) error {
	if err := that.broadcast(wire.Start()); err != nil {
		return err
	}

	that.save(ctx)

	for !that.match.IsFinished() {
		mover := that.match.Turn

		if err := that.peer(mover.Opponent()).Send(wire.Wait()); err != nil {
			return err
		}

		move, err := that.awaitLegalMove(mover)
		if err != nil {
			return err
		}

		if err = that.match.MakeTurn(mover, move); err != nil {
			return fmt.Errorf("failed make turn: %w", err)
		}

		if err = that.broadcast(wire.Update(uint32(mover), uint32(move))); err != nil {
			return err
		}

		that.save(ctx)
	}

	return that.announceOutcome()
}

// awaitLegalMove - prompts the mover until it sends a move onto an empty cell.
func (that *Coordinator) awaitLegalMove(mover entity.PlayerID) (int, error) {
	log := that.logger.With("method", "awaitLegalMove", "player", mover)
	p := that.peer(mover)

	for {
		if err := p.Send(wire.Turn()); err != nil {
			return 0, err
		}

		raw, err := p.ReadMove()
		if err != nil {
			return 0, err
		}

		move := int(raw)
		if that.match.Board.IsLegal(move) {
			log.Debug("move accepted", "move", move, "ply", that.match.Plies+1)
			return move, nil
		}

		log.Debug("illegal move", "move", raw)

		if err = p.Send(wire.Invalid()); err != nil {
			return 0, err
		}
	}
}

func (that *Coordinator) announceOutcome() error {
	if that.match.IsDraw() {
		return that.broadcast(wire.Draw())
	}

	winner := *that.match.Winner

	if err := that.peer(winner).Send(wire.Win()); err != nil {
		return err
	}

	return that.peer(winner.Opponent()).Send(wire.Lose())
}

func (that *Coordinator) broadcast(msg wire.Message) error {
	for _, p := range that.peers {
		if err := p.Send(msg); err != nil {
			return err
		}
	}

	return nil
}

func (that *Coordinator) peer(id entity.PlayerID) *peer.Peer {
	return that.peers[id]
}

// save - best effort, a slow registry must not stall the turn loop.
func (that *Coordinator) save(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := that.repo.CreateOrUpdate(ctx, that.match); err != nil {
		that.logger.Error("failed to save match", "method", "save", "error", err)
	}
}

func (that *Coordinator) closePeers() {
	for _, p := range that.peers {
		if err := p.Close(); err != nil {
			that.logger.Warn("failed to close peer", "error", err)
		}
	}
}

// finish - releases everything the match held: peers, registry entry and its
// share of the active player count.
func (that *Coordinator) finish(ctx context.Context) {
	log := that.logger.With("method", "finish")

	that.closePeers()

	if err := that.repo.DeleteByID(ctx, that.match.ID); err != nil {
		log.Error("failed to delete match", "error", err)
	}

	active := that.players.Add(-2)
	log.Info("players left", "active_players", active)
}
