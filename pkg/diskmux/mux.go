package diskmux

import (
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/chanyoung/ecdisk/pkg/security"
	"github.com/chanyoung/ecdisk/pkg/util/config"
	"github.com/chanyoung/ecdisk/pkg/util/mlog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger *logrus.Entry

// Mux routes accepted tcp connections into registered layers
// by inspecting the first byte of each connection. RPC clients
// write an explicit type byte, http requests are recognized by
// the first letter of their method.
type Mux struct {
	addr    string
	mu      sync.Mutex
	ln      net.Listener
	layers  []*Layer
	secuCfg *config.Security
}

// NewMux creates a Mux object.
func NewMux(addr string, secuCfg *config.Security) *Mux {
	logger = mlog.GetPackageLogger("pkg/diskmux")

	return &Mux{
		addr:    addr,
		layers:  make([]*Layer, 0),
		secuCfg: secuCfg,
	}
}

// Address returns the listening address, nil before the listener
// is bound.
func (m *Mux) Address() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

// RegisterLayer registers a layer to the Mux.
func (m *Mux) RegisterLayer(l *Layer) {
	m.layers = append(m.layers, l)
}

// Close closes the listener.
func (m *Mux) Close() error {
	// Close real net.Listener first.
	// This will not accept more connections.
	m.mu.Lock()
	ln := m.ln
	m.mu.Unlock()
	if ln != nil {
		if err := ln.Close(); err != nil {
			return err
		}
	}

	// Close all registered layers.
	for _, l := range m.layers {
		if err := l.Close(); err != nil {
			return err
		}
	}

	return nil
}

// ListenAndServe opens a socket and routes all incoming tcp connections.
// Serves with tls when server certificates are configured, plain tcp
// otherwise.
func (m *Mux) ListenAndServe() error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return errors.Wrap(err, "diskmux listen failed")
	}

	keepAliveLn := tcpKeepAliveListener{ln.(*net.TCPListener)}

	if m.secuCfg == nil || m.secuCfg.ServerCrt == "" {
		m.serve(keepAliveLn)
		return nil
	}

	// Make ssl cert.
	cert, err := tls.LoadX509KeyPair(
		m.secuCfg.CertsDir+"/"+m.secuCfg.ServerCrt,
		m.secuCfg.CertsDir+"/"+m.secuCfg.ServerKey,
	)
	if err != nil {
		ln.Close()
		return errors.Wrap(err, "diskmux load key pair failed")
	}

	// Load tls configuration and add certificate.
	tlsConfig := security.DefaultTLSConfig()
	tlsConfig.Certificates = append(tlsConfig.Certificates, cert)

	m.serve(tls.NewListener(keepAliveLn, tlsConfig))
	return nil
}

func (m *Mux) serve(ln net.Listener) {
	m.mu.Lock()
	m.ln = ln
	m.mu.Unlock()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go m.handleConn(conn)
		}
	}()
}

func (m *Mux) handleConn(conn net.Conn) {
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		if err != io.EOF {
			logger.Errorf("failed to read the first byte: %v", err)
		}
		conn.Close()
		return
	}

	for _, l := range m.layers {
		if l.match(buf[0]) {
			l.handleConn(conn, buf[0])
			return
		}
	}

	// No matching layers.
	logger.Errorf("diskmux: no matching layers for byte %#x", buf[0])
	conn.Close()
}

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted connections.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
