package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/die-net/shoes/internal/socks5"
)

// SOCKS5Server accepts SOCKS5 clients and serves each on its own goroutine.
type SOCKS5Server struct {
	ctx context.Context
	cfg Config
}

func NewSOCKS5Server(ctx context.Context, cfg Config) *SOCKS5Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SOCKS5Server{ctx: ctx, cfg: cfg}
}

// Serve accepts connections on ln until it fails. It returns nil if ln was
// closed because the server's context is done, and the accept error
// otherwise. Failures of individual connections are logged and never stop
// the loop.
func (s *SOCKS5Server) Serve(ln net.Listener) error {
	var tempDelay time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				tempDelay = nextAcceptDelay(tempDelay)
				s.cfg.Logger.Warn().Err(err).Dur("retry", tempDelay).Msg("accept")
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		tempDelay = 0

		go s.handle(c)
	}
}

func (s *SOCKS5Server) handle(c net.Conn) {
	log := s.cfg.Logger.With().
		Str("conn", uuid.NewString()).
		Str("client", c.RemoteAddr().String()).
		Logger()

	err := newConnHandler(s.cfg, c, log).run(s.ctx)
	logOutcome(log, err)
}

func logOutcome(log zerolog.Logger, err error) {
	switch {
	case err == nil:
		log.Debug().Msg("closed")
	case errors.Is(err, socks5.ErrNoAcceptableMethod):
		log.Warn().Err(err).Msg("rejected")
	default:
		log.Error().Err(err).Msg("connection failed")
	}
}

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
