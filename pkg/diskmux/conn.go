package diskmux

import (
	"net"
	"sync"
	"time"
)

// replayConn replays the already consumed first byte of the
// connection on the first read.
type replayConn struct {
	conn      net.Conn
	once      sync.Once
	firstByte byte
}

func newReplayConn(conn net.Conn, firstByte byte) *replayConn {
	return &replayConn{
		conn:      conn,
		firstByte: firstByte,
	}
}

func (rc *replayConn) Read(b []byte) (n int, err error) {
	rc.once.Do(func() {
		if len(b) < 1 {
			return
		}

		b[0] = rc.firstByte
		b = b[1:]
		n++
	})
	read, err := rc.conn.Read(b)
	return read + n, err
}

func (rc *replayConn) Write(b []byte) (n int, err error) {
	return rc.conn.Write(b)
}

func (rc *replayConn) Close() error {
	return rc.conn.Close()
}

func (rc *replayConn) LocalAddr() net.Addr {
	return rc.conn.LocalAddr()
}

func (rc *replayConn) RemoteAddr() net.Addr {
	return rc.conn.RemoteAddr()
}

func (rc *replayConn) SetDeadline(t time.Time) error {
	return rc.conn.SetDeadline(t)
}

func (rc *replayConn) SetReadDeadline(t time.Time) error {
	return rc.conn.SetReadDeadline(t)
}

func (rc *replayConn) SetWriteDeadline(t time.Time) error {
	return rc.conn.SetWriteDeadline(t)
}
