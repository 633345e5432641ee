// Package player provides a scripted protocol peer for tests. It answers every
// TRN with the next move of its script, records everything the server sends
// and hangs up when asked to move with an empty script.
package player

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/wire"
)

type Player struct {
	conn  net.Conn
	moves []uint32
	gate  <-chan struct{}

	hangUp bool

	mu       sync.Mutex
	identity uint32
	messages []wire.Message
}

func New(conn net.Conn, moves ...uint32) *Player {
	return &Player{
		conn:  conn,
		moves: moves,
	}
}

// WithGate - holds the first move back until gate is closed.
func (that *Player) WithGate(gate <-chan struct{}) *Player {
	that.gate = gate
	return that
}

// WithHangUp - closes the connection right after the last scripted move is sent.
func (that *Player) WithHangUp() *Player {
	that.hangUp = true
	return that
}

// Run - plays until the server closes the connection or the script runs out.
// When withIdentity is set the leading identity integer is read first.
func (that *Player) Run(withIdentity bool) error {
	defer that.conn.Close()

	if withIdentity {
		id, err := wire.ReadUint32(that.conn)
		if err != nil {
			return fmt.Errorf("failed to read identity: %w", err)
		}

		that.mu.Lock()
		that.identity = id
		that.mu.Unlock()
	}

	for {
		msg, err := wire.ReadMessage(that.conn)
		if errors.Is(err, apperror.ErrPeerDisconnected) {
			return nil
		}
		if err != nil {
			return err
		}

		that.mu.Lock()
		that.messages = append(that.messages, msg)
		that.mu.Unlock()

		if msg.Tag != wire.TagTurn {
			continue
		}

		if len(that.moves) == 0 {
			return nil
		}

		if that.gate != nil {
			<-that.gate
			that.gate = nil
		}

		move := that.moves[0]
		that.moves = that.moves[1:]

		if err = wire.WriteUint32(that.conn, move); err != nil {
			return nil
		}

		if that.hangUp && len(that.moves) == 0 {
			return nil
		}
	}
}

func (that *Player) Identity() uint32 {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.identity
}

func (that *Player) Messages() []wire.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]wire.Message(nil), that.messages...)
}

func (that *Player) Tags() []wire.Tag {
	messages := that.Messages()

	tags := make([]wire.Tag, 0, len(messages))
	for _, msg := range messages {
		tags = append(tags, msg.Tag)
	}

	return tags
}

// Updates - every UPD received, in order.
func (that *Player) Updates() []wire.Message {
	var updates []wire.Message
	for _, msg := range that.Messages() {
		if msg.Tag == wire.TagUpdate {
			updates = append(updates, msg)
		}
	}

	return updates
}

// Result - the terminal tag received, if any.
func (that *Player) Result() (wire.Tag, bool) {
	for _, msg := range that.Messages() {
		if msg.Tag.IsTerminal() {
			return msg.Tag, true
		}
	}

	return "", false
}
