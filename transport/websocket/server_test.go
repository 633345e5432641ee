package websocket

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/counter"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
	"github.com/rocketscienceinc/tictactoe-server/internal/server"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
	"github.com/rocketscienceinc/tictactoe-server/testing/player"
)

func listen(t *testing.T) *Listener {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	listener, err := Listen(logger, "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	return listener
}

func dial(t *testing.T, listener *Listener) net.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+Path, nil)
	require.NoError(t, err)

	return newConn(ws)
}

func TestListener_Accept(t *testing.T) {
	t.Run("Protocol bytes survive websocket message boundaries", func(t *testing.T) {
		// Given: a client connected over websocket
		listener := listen(t)
		client := dial(t, listener)
		defer client.Close()

		conn, err := listener.Accept()
		require.NoError(t, err)
		defer conn.Close()

		// When: the client splits an update across two messages
		_, err = client.Write([]byte("UP"))
		require.NoError(t, err)
		_, err = client.Write([]byte{'D', 0, 0, 0, 1, 0, 0, 0, 2})
		require.NoError(t, err)

		// Then: the server side decodes one update
		msg, err := wire.ReadMessage(conn)
		require.NoError(t, err)
		assert.Equal(t, wire.Update(1, 2), msg)
	})

	t.Run("Server messages reach the client", func(t *testing.T) {
		listener := listen(t)
		client := dial(t, listener)
		defer client.Close()

		conn, err := listener.Accept()
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, wire.WriteMessage(conn, wire.Turn()))

		msg, err := wire.ReadMessage(client)
		require.NoError(t, err)
		assert.Equal(t, wire.Turn(), msg)
	})

	t.Run("Client hang up is a disconnect", func(t *testing.T) {
		listener := listen(t)
		client := dial(t, listener)

		conn, err := listener.Accept()
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, client.Close())

		_, err = wire.ReadUint32(conn)
		require.ErrorIs(t, err, apperror.ErrPeerDisconnected)
	})

	t.Run("Accept fails once closed", func(t *testing.T) {
		listener := listen(t)
		require.NoError(t, listener.Close())

		_, err := listener.Accept()
		require.ErrorIs(t, err, net.ErrClosed)
	})
}

func TestListener_PlaysMatch(t *testing.T) {
	// Given: a match server fed by the websocket listener
	listener := listen(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	players := counter.New()
	srv := server.New(logger, players, repository.NewNopMatchRepository(), server.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		srv.Wait()
	}()

	go func() { _ = srv.Serve(ctx, listener) }()

	// When: two browser players connect, both always trying the lowest free cell
	moves := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8}
	a := player.New(dial(t, listener), moves...)
	b := player.New(dial(t, listener), moves...)

	var wg sync.WaitGroup
	for _, p := range []*player.Player{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Run(true))
		}()
	}
	wg.Wait()

	// Then: player 0 completes the anti-diagonal exactly as over TCP
	winner, loser := a, b
	if a.Identity() != 0 {
		winner, loser = b, a
	}

	assert.Equal(t, uint32(1), loser.Identity())

	result, ok := winner.Result()
	require.True(t, ok)
	assert.Equal(t, wire.TagWin, result)

	result, ok = loser.Result()
	require.True(t, ok)
	assert.Equal(t, wire.TagLose, result)

	assert.Equal(t, wire.Update(0, 6), winner.Updates()[len(winner.Updates())-1])
	require.Eventually(t, func() bool { return players.Value() == 0 }, 5*time.Second, 10*time.Millisecond)
}
