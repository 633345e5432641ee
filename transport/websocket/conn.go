package websocket

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// conn adapts a websocket to a byte stream. Every Write is sent as one binary
// message, reads drain data messages back to back so the framing of the
// game protocol does not depend on websocket message boundaries.
type conn struct {
	ws      *websocket.Conn
	reader  io.Reader
	readErr error
}

func newConn(ws *websocket.Conn) net.Conn {
	return &conn{ws: ws}
}

func (that *conn) Read(p []byte) (int, error) {
	for {
		if that.readErr != nil {
			return 0, that.readErr
		}

		if that.reader == nil {
			_, reader, err := that.ws.NextReader()
			if err != nil {
				that.readErr = translate(err)
				continue
			}

			that.reader = reader
		}

		n, err := that.reader.Read(p)
		if errors.Is(err, io.EOF) {
			that.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}

		return n, err
	}
}

func (that *conn) Write(p []byte) (int, error) {
	if err := that.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (that *conn) Close() error {
	return that.ws.Close()
}

func (that *conn) LocalAddr() net.Addr {
	return that.ws.LocalAddr()
}

func (that *conn) RemoteAddr() net.Addr {
	return that.ws.RemoteAddr()
}

func (that *conn) SetDeadline(t time.Time) error {
	if err := that.ws.SetReadDeadline(t); err != nil {
		return err
	}

	return that.ws.SetWriteDeadline(t)
}

func (that *conn) SetReadDeadline(t time.Time) error {
	return that.ws.SetReadDeadline(t)
}

func (that *conn) SetWriteDeadline(t time.Time) error {
	return that.ws.SetWriteDeadline(t)
}

// translate - a clean close from the client reads as end of stream.
func translate(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return io.EOF
	}

	return err
}
