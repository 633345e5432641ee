package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/counter"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/match"
	"github.com/rocketscienceinc/tictactoe-server/internal/peer"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
)

const maxAcceptDelay = time.Second

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	DeleteByID(ctx context.Context, id string) error
}

type Options struct {
	// ReadTimeout bounds the wait for each move, zero waits forever.
	ReadTimeout time.Duration
	// AnnouncePlayerCount sends CNT to both peers right after their identity.
	AnnouncePlayerCount bool
}

// Server pairs accepted connections in arrival order and runs a match for
// every pair. Several listeners may feed the same server.
type Server struct {
	logger    *slog.Logger
	players   *counter.ActivePlayers
	matchRepo matchRepo
	opts      Options

	mu      sync.Mutex
	waiting net.Conn
	matches sync.WaitGroup
}

func New(logger *slog.Logger, players *counter.ActivePlayers, matchRepo matchRepo, opts Options) *Server {
	return &Server{
		logger:    logger.With("component", "server"),
		players:   players,
		matchRepo: matchRepo,
		opts:      opts,
	}
}

// Serve - accepts connections until ctx is cancelled or the listener is closed.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error("failed to close listener", "error", err)
		}
		that.dropWaiting()
	})
	defer stop()

	log.Info("accepting players")

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w", apperror.ErrConnectionFailure, err)
			}

			delay = nextDelay(delay)
			log.Error("failed to accept connection", "error", err, "retry_in", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}

			continue
		}

		delay = 0
		that.join(ctx, conn)
	}
}

// Wait - blocks until every started match has ended.
func (that *Server) Wait() {
	that.matches.Wait()
}

// join - parks the first connection of a pair, the second one starts the match.
func (that *Server) join(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "join", "addr", conn.RemoteAddr().String())

	that.mu.Lock()

	if ctx.Err() != nil {
		that.mu.Unlock()
		_ = conn.Close()
		return
	}

	if that.waiting == nil {
		that.waiting = conn
		that.mu.Unlock()

		log.Info("player connected, waiting for opponent")
		return
	}

	first := that.waiting
	that.waiting = nil

	active := that.players.Add(2)
	that.matches.Add(1)
	that.mu.Unlock()

	log.Info("player connected, pair complete", "active_players", active)

	go that.startMatch(ctx, first, conn, active)
}

func (that *Server) startMatch(ctx context.Context, firstConn, secondConn net.Conn, active int) {
	defer that.matches.Done()

	id := uuid.NewString()
	log := that.logger.With("method", "startMatch", "match_id", id)

	first := peer.New(firstConn, entity.FirstPlayer, that.opts.ReadTimeout)
	second := peer.New(secondConn, entity.SecondPlayer, that.opts.ReadTimeout)

	if err := that.introduce(first, second, active); err != nil {
		log.Warn("failed to introduce players", "error", err)

		_ = first.Close()
		_ = second.Close()
		log.Info("players left", "active_players", that.players.Add(-2))

		return
	}

	match.New(that.logger, id, first, second, that.matchRepo, that.players).Run(ctx)
}

// introduce - sends each peer its identity, and the player count when enabled.
func (that *Server) introduce(first, second *peer.Peer, active int) error {
	for _, p := range []*peer.Peer{first, second} {
		if err := p.SendIdentity(); err != nil {
			return err
		}

		if !that.opts.AnnouncePlayerCount {
			continue
		}

		if err := p.Send(wire.Count(uint32(active))); err != nil {
			return err
		}
	}

	return nil
}

func (that *Server) dropWaiting() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil {
		return
	}

	if err := that.waiting.Close(); err != nil {
		that.logger.Warn("failed to close waiting connection", "error", err)
	}

	that.waiting = nil
}

func nextDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}

	return min(delay*2, maxAcceptDelay)
}
