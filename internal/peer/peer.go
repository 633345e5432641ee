package peer

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
)

// Peer is one connected player. It is owned by a single match, which is the
// only goroutine allowed to read from or write to it.
type Peer struct {
	ID entity.PlayerID

	conn        net.Conn
	readTimeout time.Duration
	closeOnce   sync.Once
	closeErr    error
}

// New - wraps the connection. A zero readTimeout waits for moves forever.
func New(conn net.Conn, id entity.PlayerID, readTimeout time.Duration) *Peer {
	return &Peer{
		ID:          id,
		conn:        conn,
		readTimeout: readTimeout,
	}
}

func (that *Peer) Addr() string {
	return that.conn.RemoteAddr().String()
}

// SendIdentity - tells the peer which player it is.
func (that *Peer) SendIdentity() error {
	if err := wire.WriteUint32(that.conn, uint32(that.ID)); err != nil {
		return fmt.Errorf("failed to send identity to player %d: %w", that.ID, err)
	}

	return nil
}

func (that *Peer) Send(msg wire.Message) error {
	if err := wire.WriteMessage(that.conn, msg); err != nil {
		return fmt.Errorf("failed to send message to player %d: %w", that.ID, err)
	}

	return nil
}

// ReadMove - blocks until the peer sends a move index.
func (that *Peer) ReadMove() (uint32, error) {
	if that.readTimeout > 0 {
		if err := that.conn.SetReadDeadline(time.Now().Add(that.readTimeout)); err != nil {
			return 0, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	move, err := wire.ReadUint32(that.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to read move from player %d: %w", that.ID, err)
	}

	return move, nil
}

// Close - closes the connection, later calls are no-ops.
func (that *Peer) Close() error {
	that.closeOnce.Do(func() {
		if err := that.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			that.closeErr = fmt.Errorf("failed to close player %d connection: %w", that.ID, err)
		}
	})

	return that.closeErr
}
