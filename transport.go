package statsd

import (
	"context"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Transport delivers one datagram per Send
type Transport interface {
	Send(b []byte) error
	Close() error
}

// UDPTransport owns one connected UDP socket
type UDPTransport struct {
	addr   *net.UDPAddr
	logger *zap.Logger

	// mu is held shared by Send and exclusively by Close
	mu     sync.RWMutex
	conn   *net.UDPConn
	closed bool
}

// DialUDP resolves host once and connects a UDP socket to it. Failures
// are returned as *TransportError.
func DialUDP(ctx context.Context, host string, port int, resolver ResolverConfig, logger *zap.Logger) (*UDPTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target := net.JoinHostPort(host, strconv.Itoa(port))

	ip, err := resolveHost(ctx, host, resolver, logger)
	if err != nil {
		return nil, &TransportError{Addr: target, Err: err}
	}
	addr := &net.UDPAddr{IP: ip, Port: port}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, &TransportError{Addr: target, Err: err}
	}

	logger.Info("statsd transport ready",
		zap.String("target", target),
		zap.String("addr", addr.String()))

	return &UDPTransport{
		addr:   addr,
		logger: logger,
		conn:   conn,
	}, nil
}

// RemoteAddr returns the resolved collector address
func (t *UDPTransport) RemoteAddr() *net.UDPAddr {
	return t.addr
}

// Send writes b as a single datagram
func (t *UDPTransport) Send(b []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrTransportClosed
	}
	if _, err := t.conn.Write(b); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// Close releases the socket. Calling it again is a no-op.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
