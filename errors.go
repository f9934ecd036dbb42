package statsd

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by send operations on a client that has been closed.
	ErrClosed = errors.New("statsd client is closed")

	// ErrTransportClosed is returned by Send after the transport was closed.
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidName is returned for stat names that would corrupt the wire line.
	ErrInvalidName = errors.New("invalid stat name")

	// ErrInvalidSampleRate is returned for sample rates outside (0, 1].
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrInvalidValue is returned for values the metric kind does not accept.
	ErrInvalidValue = errors.New("invalid metric value")
)

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("statsd config: %v", e.Err)
	}
	return fmt.Sprintf("statsd config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a failure to resolve or open the outbound socket.
type TransportError struct {
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("statsd transport %s: %v", e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SendError reports a failed datagram write.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("statsd send: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
