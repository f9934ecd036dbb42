package statsd

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport records datagrams instead of sending them
type fakeTransport struct {
	mu     sync.Mutex
	sent   []string
	err    error
	closed bool
	closes int
}

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrTransportClosed
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, string(b))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.closed = true
	return nil
}

func (f *fakeTransport) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// stubSampler returns a fixed decision and counts calls
type stubSampler struct {
	send  bool
	calls atomic.Int64
}

func (s *stubSampler) ShouldSend(float64) bool {
	s.calls.Add(1)
	return s.send
}

// listenUDP opens a loopback collector and returns it with its port
func listenUDP(t *testing.T) (*net.UDPConn, int) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func readDatagram(t *testing.T, conn *net.UDPConn) string {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func testConfig(port int) Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	return cfg
}
