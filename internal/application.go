package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/config"
	"github.com/rocketscienceinc/tictactoe-server/internal/counter"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-server/internal/server"
	"github.com/rocketscienceinc/tictactoe-server/transport/rest"
	"github.com/rocketscienceinc/tictactoe-server/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis host is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	matchRepo := repository.NewNopMatchRepository()

	if conf.Redis.Enabled {
		if conf.Redis.Host == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		matchRepo = repository.NewMatchRepository(redisStorage, conf.Redis.MatchTTL)
	}

	activePlayers := counter.New()
	matchServer := server.New(logger, activePlayers, matchRepo, server.Options{
		ReadTimeout:         conf.ReadTimeout,
		AnnouncePlayerCount: conf.AnnouncePlayerCount,
	})

	listeners, err := openListeners(logger, conf)
	if err != nil {
		return err
	}

	errCh := make(chan error, len(listeners)+1)

	var serving sync.WaitGroup
	for _, listener := range listeners {
		serving.Add(1)
		go func() {
			defer serving.Done()
			log.Info("Starting match server", "addr", listener.Addr().String())
			if serveErr := matchServer.Serve(ctx, listener); serveErr != nil {
				errCh <- fmt.Errorf("match server error: %w", serveErr)
			}
		}()
	}

	// run HTTP server
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, activePlayers, matchRepo).Start(ctx, conf.HTTPPort); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	select {
	case err = <-errCh:
		log.Error("server failed, shutting down", "error", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	cancel()
	serving.Wait()
	matchServer.Wait()

	log.Info("all matches finished", "active_players", activePlayers.Value())

	return err
}

// openListeners - binds the TCP port and, when configured, the websocket port.
func openListeners(logger *slog.Logger, conf *config.Config) ([]net.Listener, error) {
	tcpListener, err := net.Listen("tcp", ":"+conf.TCPPort)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConnectionFailure, err)
	}

	listeners := []net.Listener{tcpListener}

	if conf.WebSocketPort == "" {
		return listeners, nil
	}

	wsListener, err := websocket.Listen(logger, ":"+conf.WebSocketPort)
	if err != nil {
		_ = tcpListener.Close()
		return nil, fmt.Errorf("%w: %w", apperror.ErrConnectionFailure, err)
	}

	return append(listeners, wsListener), nil
}
