package proxy

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/shoes/internal/dialer"
)

type Config struct {
	// NegotiationTimeout bounds the handshake, including the dial to the
	// target. Zero disables it.
	NegotiationTimeout time.Duration

	// IdleTimeout closes a relay after this long without traffic in either
	// direction. Zero disables it.
	IdleTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer

	Logger zerolog.Logger
}
