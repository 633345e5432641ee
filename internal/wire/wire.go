// Package wire implements the fixed-width binary protocol spoken between the
// match server and its peers: 3-byte ASCII tags optionally followed by
// big-endian uint32 arguments. There are no delimiters or length prefixes,
// the tag alone determines how many integers follow.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

const (
	TagSize  = 3
	UintSize = 4
)

type Tag string

const (
	TagStart   Tag = "SRT"
	TagTurn    Tag = "TRN"
	TagWait    Tag = "WAT"
	TagUpdate  Tag = "UPD"
	TagInvalid Tag = "INV"
	TagWin     Tag = "WIN"
	TagLose    Tag = "LSE"
	TagDraw    Tag = "DRW"
	TagCount   Tag = "CNT"
)

// argCounts - number of uint32 arguments trailing each known tag.
var argCounts = map[Tag]int{
	TagStart:   0,
	TagTurn:    0,
	TagWait:    0,
	TagUpdate:  2,
	TagInvalid: 0,
	TagWin:     0,
	TagLose:    0,
	TagDraw:    0,
	TagCount:   1,
}

// ArgCount returns the number of integers that follow the tag and whether the tag is known.
func (that Tag) ArgCount() (int, bool) {
	n, ok := argCounts[that]
	return n, ok
}

// IsTerminal reports whether the tag ends a match for its recipient.
func (that Tag) IsTerminal() bool {
	return that == TagWin || that == TagLose || that == TagDraw
}

// Message is one protocol unit: a tag and the integers it carries.
type Message struct {
	Tag  Tag
	Args []uint32
}

func Start() Message   { return Message{Tag: TagStart} }
func Turn() Message    { return Message{Tag: TagTurn} }
func Wait() Message    { return Message{Tag: TagWait} }
func Invalid() Message { return Message{Tag: TagInvalid} }
func Win() Message     { return Message{Tag: TagWin} }
func Lose() Message    { return Message{Tag: TagLose} }
func Draw() Message    { return Message{Tag: TagDraw} }

// Update - a legal move applied by player.
func Update(player, move uint32) Message {
	return Message{Tag: TagUpdate, Args: []uint32{player, move}}
}

// Count - current number of active players.
func Count(players uint32) Message {
	return Message{Tag: TagCount, Args: []uint32{players}}
}

// MarshalBinary encodes the message into its wire form.
func (that Message) MarshalBinary() ([]byte, error) {
	n, ok := that.Tag.ArgCount()
	if !ok || len(that.Tag) != TagSize {
		return nil, fmt.Errorf("%w: unknown tag %q", apperror.ErrProtocol, that.Tag)
	}

	if len(that.Args) != n {
		return nil, fmt.Errorf("%w: tag %s expects %d args, got %d", apperror.ErrProtocol, that.Tag, n, len(that.Args))
	}

	buf := make([]byte, 0, TagSize+n*UintSize)
	buf = append(buf, that.Tag...)
	for _, arg := range that.Args {
		buf = binary.BigEndian.AppendUint32(buf, arg)
	}

	return buf, nil
}

// WriteMessage - writes the whole message with a single Write call.
func WriteMessage(w io.Writer, msg Message) error {
	buf, err := msg.MarshalBinary()
	if err != nil {
		return err
	}

	if _, err = w.Write(buf); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", apperror.ErrPeerDisconnected, msg.Tag, err)
	}

	return nil
}

// WriteUint32 - writes a bare big-endian integer, used for identities and moves.
func WriteUint32(w io.Writer, value uint32) error {
	buf := binary.BigEndian.AppendUint32(make([]byte, 0, UintSize), value)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: failed to write uint32: %w", apperror.ErrPeerDisconnected, err)
	}

	return nil
}

// ReadTag - reads exactly one tag and rejects anything outside the known set.
func ReadTag(r io.Reader) (Tag, error) {
	buf := make([]byte, TagSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: failed to read tag: %w", apperror.ErrPeerDisconnected, err)
	}

	tag := Tag(buf)
	if _, ok := tag.ArgCount(); !ok {
		return "", fmt.Errorf("%w: unknown tag %q", apperror.ErrProtocol, buf)
	}

	return tag, nil
}

// ReadUint32 - reads exactly four bytes in network byte order.
func ReadUint32(r io.Reader) (uint32, error) {
	buf := make([]byte, UintSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("%w: failed to read uint32: %w", apperror.ErrPeerDisconnected, err)
	}

	return binary.BigEndian.Uint32(buf), nil
}

// ReadMessage - decodes the tag first, then the integers documented for it.
func ReadMessage(r io.Reader) (Message, error) {
	tag, err := ReadTag(r)
	if err != nil {
		return Message{}, err
	}

	n, _ := tag.ArgCount()
	msg := Message{Tag: tag}

	for range n {
		arg, err := ReadUint32(r)
		if err != nil {
			return Message{}, fmt.Errorf("failed to read %s payload: %w", tag, err)
		}
		msg.Args = append(msg.Args, arg)
	}

	return msg, nil
}
