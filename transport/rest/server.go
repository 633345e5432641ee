package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type playerCounter interface {
	Value() int
}

type matchRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Match, error)
}

// Server exposes a liveness probe, the active player count and the live
// state of in-progress matches.
type Server struct {
	logger    *slog.Logger
	players   playerCounter
	matchRepo matchRepo
}

func New(logger *slog.Logger, players playerCounter, matchRepo matchRepo) *Server {
	return &Server{
		logger:    logger.With("component", "rest"),
		players:   players,
		matchRepo: matchRepo,
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ping", that.ping)
	router.GET("/stats", that.stats)
	router.GET("/matches/:id", that.getMatch)

	return router
}

// Start - serves HTTP until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	})
	defer stop()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
