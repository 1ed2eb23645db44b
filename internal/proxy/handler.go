package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/shoes/internal/dialer"
	"github.com/die-net/shoes/internal/socks5"
)

// connState is either handshaking or relaying.
type connState interface {
	connState()
}

type handshaking struct {
	hs *socks5.Handshake
}

type relaying struct {
	target net.Conn
	// early holds bytes the client sent after its request, before it saw
	// our reply. They go to the target ahead of the relay.
	early []byte
}

func (handshaking) connState() {}
func (relaying) connState()    {}

// connHandler owns one accepted client connection from the first handshake
// byte until the relay ends.
type connHandler struct {
	cfg    Config
	client net.Conn
	state  connState
	log    zerolog.Logger
}

func newConnHandler(cfg Config, client net.Conn, log zerolog.Logger) *connHandler {
	return &connHandler{
		cfg:    cfg,
		client: client,
		state:  handshaking{hs: socks5.NewHandshake()},
		log:    log,
	}
}

// run drives the connection to completion and closes the client. A nil
// error means the client went away cleanly or the relay ended normally.
func (h *connHandler) run(ctx context.Context) error {
	defer h.client.Close()

	for {
		switch st := h.state.(type) {
		case handshaking:
			next, err := h.handshake(ctx, st.hs)
			if err != nil || next == nil {
				return err
			}
			h.state = next
		case relaying:
			return h.relay(ctx, st)
		default:
			return fmt.Errorf("unknown connection state %T", st)
		}
	}
}

// handshake reads from the client until a target has been connected. It
// returns a nil state without error when the client disconnects first.
func (h *connHandler) handshake(ctx context.Context, hs *socks5.Handshake) (connState, error) {
	if t := h.cfg.NegotiationTimeout; t > 0 {
		_ = h.client.SetDeadline(time.Now().Add(t))

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, func() { _ = h.client.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, 512)
	for {
		n, err := h.client.Read(buf)
		if n > 0 {
			next, ferr := h.feed(ctx, hs, buf[:n])
			if ferr != nil || next != nil {
				return next, ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("read handshake: %w", err)
		}
	}
}

// feed hands chunk to the handshake and acts on every message it completes.
// A nil state and nil error mean more input is needed.
func (h *connHandler) feed(ctx context.Context, hs *socks5.Handshake, chunk []byte) (connState, error) {
	reply, err := hs.Feed(chunk)
	for ; err == nil; reply, err = hs.Feed(nil) {
		switch st := hs.State().(type) {
		case socks5.AwaitingRequest:
			if _, err := h.client.Write(reply); err != nil {
				return nil, fmt.Errorf("write method selection: %w", err)
			}
			if st.Selected() == socks5.MethodNoAcceptable {
				return nil, socks5.ErrNoAcceptableMethod
			}
		case socks5.Completed:
			return h.connect(ctx, st.Request, hs.Buffered())
		}
	}
	if errors.Is(err, socks5.ErrIncomplete) {
		return nil, nil
	}
	// Protocol errors close the connection without a reply.
	return nil, err
}

// connect dials the requested target and answers the client.
func (h *connHandler) connect(ctx context.Context, req socks5.Request, early []byte) (connState, error) {
	target, err := h.cfg.Dialer.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		code := socks5.ReplyServerFailure
		if dialer.IsConnRefused(err) {
			code = socks5.ReplyConnectionRefused
		}
		if _, werr := socks5.NewReply(req, code).WriteTo(h.client); werr != nil {
			return nil, errors.Join(err, fmt.Errorf("write reply: %w", werr))
		}
		return nil, err
	}

	if _, err := socks5.NewReply(req, socks5.ReplySucceeded).WriteTo(h.client); err != nil {
		_ = target.Close()
		return nil, fmt.Errorf("write reply: %w", err)
	}

	h.log.Debug().Str("target", req.Address()).Msg("connected")

	return relaying{target: target, early: bytes.Clone(early)}, nil
}

func (h *connHandler) relay(ctx context.Context, st relaying) error {
	_ = h.client.SetDeadline(time.Time{})

	if len(st.early) > 0 {
		if _, err := st.target.Write(st.early); err != nil {
			_ = st.target.Close()
			return fmt.Errorf("write early data: %w", err)
		}
	}

	if err := CopyBidirectional(ctx, h.client, st.target, h.cfg.IdleTimeout); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}
