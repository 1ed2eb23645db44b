package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var relayBuffers = NewBufferPool(32 * 1024)

// CopyBidirectional copies left to right and right to left concurrently
// until either direction ends, then closes both connections.
//
// If idleTimeout is positive, the relay is abandoned once neither direction
// has moved any bytes for that long. The end of stream or a close caused by
// the other direction is not an error.
func CopyBidirectional(ctx context.Context, left, right net.Conn, idleTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	touch := func() {}
	if idleTimeout > 0 {
		touch = func() {
			dl := time.Now().Add(idleTimeout)
			_ = left.SetDeadline(dl)
			_ = right.SetDeadline(dl)
		}
		touch()
	}

	pipe := func(dst, src net.Conn) error {
		defer closeBoth()

		var r io.Reader = src
		if idleTimeout > 0 {
			r = &activityReader{r: src, touch: touch}
		}

		buf := relayBuffers.Get()
		defer relayBuffers.Put(buf)

		_, err := io.CopyBuffer(dst, r, buf)
		return relayError(err, idleTimeout)
	}

	g.Go(func() error { return pipe(right, left) })
	g.Go(func() error { return pipe(left, right) })

	// If the context is canceled, ensure we close both sides to unblock Copy.
	stop := context.AfterFunc(gctx, closeBoth)
	defer stop()

	return g.Wait()
}

// activityReader pushes the idle deadline forward whenever bytes arrive.
type activityReader struct {
	r     io.Reader
	touch func()
}

func (a *activityReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if n > 0 {
		a.touch()
	}
	return n, err
}

func relayError(err error, idleTimeout time.Duration) error {
	switch {
	case err == nil, errors.Is(err, net.ErrClosed), errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded) && idleTimeout > 0:
		return fmt.Errorf("relay idle for %s", idleTimeout)
	default:
		return err
	}
}
