package diskmux

import (
	"net"
	"sync/atomic"

	"github.com/pkg/errors"
)

const closed uint32 = 1

// Layer is a Mux transport layer.
type Layer struct {
	typeBytes        []byte
	preserveTypeByte bool

	addr    net.Addr
	connCh  chan net.Conn
	closed  uint32
	closeCh chan struct{}
}

// NewLayer makes a transport layer which accepts connections
// starting with one of the given type bytes. If preserveTypeByte
// is set, the matched byte is replayed to the consumer; http
// layers need this because the byte is part of the request line.
func NewLayer(typeBytes []byte, advertise net.Addr, preserveTypeByte bool) *Layer {
	return &Layer{
		typeBytes:        typeBytes,
		preserveTypeByte: preserveTypeByte,
		addr:             advertise,
		connCh:           make(chan net.Conn),
		closeCh:          make(chan struct{}),
	}
}

func (l *Layer) match(b byte) bool {
	for _, t := range l.typeBytes {
		if t == b {
			return true
		}
	}
	return false
}

// Addr returns the address of the transport layer.
func (l *Layer) Addr() net.Addr {
	return l.addr
}

// Accept waits and accepts the connection.
func (l *Layer) Accept() (net.Conn, error) {
	select {
	case conn := <-l.connCh:
		return conn, nil
	case <-l.closeCh:
		return nil, errors.New("transport layer closed")
	}
}

// Close closes the transport layer.
func (l *Layer) Close() error {
	old := atomic.SwapUint32(&l.closed, closed)
	if old != closed {
		close(l.closeCh)
	}

	return nil
}

func (l *Layer) handleConn(conn net.Conn, typeByte byte) {
	var c net.Conn = conn
	if l.preserveTypeByte {
		c = newReplayConn(conn, typeByte)
	}

	select {
	case l.connCh <- c:
	case <-l.closeCh:
		conn.Close()
	}
}
