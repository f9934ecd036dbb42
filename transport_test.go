package statsd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUDPTransportSend(t *testing.T) {
	collector, port := listenUDP(t)

	tr, err := DialUDP(context.Background(), "127.0.0.1", port, ResolverConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer tr.Close()

	require.Equal(t, port, tr.RemoteAddr().Port)
	require.NoError(t, tr.Send([]byte("hits:1|c")))
	assert.Equal(t, "hits:1|c", readDatagram(t, collector))
}

func TestUDPTransportCloseIdempotent(t *testing.T) {
	_, port := listenUDP(t)

	tr, err := DialUDP(context.Background(), "127.0.0.1", port, ResolverConfig{}, nil)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	err = tr.Send([]byte("hits:1|c"))
	assert.True(t, errors.Is(err, ErrTransportClosed))
}

func TestUDPTransportCloseDuringSends(t *testing.T) {
	_, port := listenUDP(t)

	tr, err := DialUDP(context.Background(), "127.0.0.1", port, ResolverConfig{}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := tr.Send([]byte("hits:1|c")); err != nil {
					assert.True(t, errors.Is(err, ErrTransportClosed))
					return
				}
			}
		}()
	}
	require.NoError(t, tr.Close())
	wg.Wait()
}

func TestDialUDPResolveFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DialUDP(ctx, "statsd.nonexistent.invalid", 8125, ResolverConfig{Timeout: 2 * time.Second}, nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "statsd.nonexistent.invalid:8125", te.Addr)
}
