package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-server/internal/counter"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
	"github.com/rocketscienceinc/tictactoe-server/testing/player"
)

const waitFor = 5 * time.Second

type testServer struct {
	*Server
	addr    string
	players *counter.ActivePlayers
}

func startServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	players := counter.New()
	srv := New(logger, players, repository.NewNopMatchRepository(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, listener) }()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-served)
		srv.Wait()
	})

	return &testServer{Server: srv, addr: listener.Addr().String(), players: players}
}

func (that *testServer) dial(t *testing.T) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", that.addr)
	require.NoError(t, err)

	return conn
}

// play runs both scripted players to completion.
func play(t *testing.T, players ...*player.Player) {
	t.Helper()

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Run(true))
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("players did not finish")
	}
}

func TestServer_Pairing(t *testing.T) {
	t.Run("First connection is player 0 and moves first", func(t *testing.T) {
		// Given: a running server
		srv := startServer(t, Options{})

		// When: two players connect one after the other
		first := player.New(srv.dial(t), 0, 1, 2)
		second := player.New(srv.dial(t), 3, 4)
		play(t, first, second)

		// Then: identities follow arrival order and the first player wins the top row
		assert.Equal(t, uint32(0), first.Identity())
		assert.Equal(t, uint32(1), second.Identity())

		assert.Equal(t, []wire.Tag{wire.TagStart, wire.TagTurn}, first.Tags()[:2])
		assert.Equal(t, []wire.Tag{wire.TagStart, wire.TagWait}, second.Tags()[:2])

		result, ok := first.Result()
		require.True(t, ok)
		assert.Equal(t, wire.TagWin, result)

		result, ok = second.Result()
		require.True(t, ok)
		assert.Equal(t, wire.TagLose, result)
	})

	t.Run("Lone connection gets no identity", func(t *testing.T) {
		// Given: a single connected player
		srv := startServer(t, Options{})
		conn := srv.dial(t)
		defer conn.Close()

		// When: it waits for data
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		_, err := wire.ReadUint32(conn)

		// Then: nothing is sent and no player is counted yet
		require.Error(t, err)
		assert.Zero(t, srv.players.Value())
	})

	t.Run("Player count is announced when enabled", func(t *testing.T) {
		srv := startServer(t, Options{AnnouncePlayerCount: true})

		first := player.New(srv.dial(t), 0, 1, 2)
		second := player.New(srv.dial(t), 3, 4)
		play(t, first, second)

		for _, p := range []*player.Player{first, second} {
			messages := p.Messages()
			require.NotEmpty(t, messages)
			assert.Equal(t, wire.Count(2), messages[0])
			assert.Equal(t, wire.TagStart, messages[1].Tag)
		}
	})

	t.Run("Disconnect ends the match and releases both players", func(t *testing.T) {
		srv := startServer(t, Options{})

		first := player.New(srv.dial(t))
		second := player.New(srv.dial(t), 4)
		play(t, first, second)

		_, ok := second.Result()
		assert.False(t, ok)

		require.Eventually(t, func() bool { return srv.players.Value() == 0 }, waitFor, 10*time.Millisecond)
	})
}

func TestServer_ConcurrentMatches(t *testing.T) {
	const matches = 4

	// Given: a running server
	srv := startServer(t, Options{})

	// Given: every pair plays a different drawn game, held back until all are paired
	scripts := [][2][]uint32{
		{{0, 2, 3, 7, 8}, {1, 4, 5, 6}},
		{{4, 0, 5, 7, 2}, {8, 3, 1, 6}},
		{{1, 3, 5, 6, 8}, {4, 2, 0, 7}},
		{{4, 1, 3, 2, 8}, {0, 7, 5, 6}},
	}

	gate := make(chan struct{})
	pairs := make([][2]*player.Player, 0, matches)

	for i := range matches {
		first := player.New(srv.dial(t), scripts[i][0]...).WithGate(gate)
		second := player.New(srv.dial(t), scripts[i][1]...)
		pairs = append(pairs, [2]*player.Player{first, second})
	}

	var wg sync.WaitGroup
	for _, pair := range pairs {
		for _, p := range pair {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, p.Run(true))
			}()
		}
	}

	// When: every match is in progress
	require.Eventually(t, func() bool { return srv.players.Value() == 2*matches }, waitFor, 10*time.Millisecond)
	close(gate)
	wg.Wait()

	// Then: each pair saw exactly its own moves, in the same order
	for i, pair := range pairs {
		first, second := pair[0], pair[1]

		assert.Equal(t, uint32(0), first.Identity(), "match %d", i)
		assert.Equal(t, uint32(1), second.Identity(), "match %d", i)
		assert.Equal(t, first.Updates(), second.Updates(), "match %d", i)

		var expected []wire.Message
		for ply := range 9 {
			mover := ply % 2
			expected = append(expected, wire.Update(uint32(mover), scripts[i][mover][ply/2]))
		}
		assert.Equal(t, expected, first.Updates(), fmt.Sprintf("match %d", i))

		result, ok := first.Result()
		require.True(t, ok)
		assert.Equal(t, wire.TagDraw, result)
	}

	require.Eventually(t, func() bool { return srv.players.Value() == 0 }, waitFor, 10*time.Millisecond)
}
