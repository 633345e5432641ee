package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const Path = "/ws"

// Listener accepts websocket upgrades and hands every upgraded connection out
// as a net.Conn, so browser players join the same pairing queue as TCP ones.
type Listener struct {
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	conns     chan net.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// Listen - starts serving websocket upgrades on addr.
func Listen(logger *slog.Logger, addr string) (*Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	that := &Listener{
		logger:   logger.With("component", "websocket"),
		listener: listener,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(chan net.Conn),
		done:  make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, that.upgradeToWebSocket)

	that.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := that.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			that.logger.Error("websocket server error", "error", err)
		}
	}()

	return that, nil
}

// Accept - waits for the next upgraded connection.
func (that *Listener) Accept() (net.Conn, error) {
	select {
	case conn := <-that.conns:
		return conn, nil
	case <-that.done:
		return nil, net.ErrClosed
	}
}

func (that *Listener) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.done)
		err = that.server.Close()
	})

	return err
}

func (that *Listener) Addr() net.Addr {
	return that.listener.Addr()
}

// upgradeToWebSocket - upgrades the request and queues the connection for Accept.
func (that *Listener) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "addr", ws.RemoteAddr().String())

	conn := newConn(ws)

	select {
	case that.conns <- conn:
	case <-that.done:
		_ = conn.Close()
	}
}
