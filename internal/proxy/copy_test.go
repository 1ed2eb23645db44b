package proxy

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/die-net/shoes/internal/testutil"
)

// relayPipes returns the outer ends of two pipes whose inner ends are joined
// by CopyBidirectional. The relay's result arrives on the returned channel.
func relayPipes(ctx context.Context, idleTimeout time.Duration) (client, target net.Conn, done <-chan error) {
	client, clientInner := net.Pipe()
	targetInner, target := net.Pipe()

	ch := make(chan error, 1)
	go func() { ch <- CopyBidirectional(ctx, clientInner, targetInner, idleTimeout) }()

	return client, target, ch
}

func waitRelay(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not finish")
		return nil
	}
}

func TestCopyBidirectional(t *testing.T) {
	t.Parallel()

	client, target, done := relayPipes(context.Background(), 0)
	defer target.Close()

	testutil.AssertEcho(t, client, target, []byte("ping"))
	testutil.AssertEcho(t, target, client, []byte("pong"))

	_ = client.Close()
	if err := waitRelay(t, done); err != nil {
		t.Fatal(err)
	}

	// The target side is closed along with the client.
	if _, err := target.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("got %v want io.EOF", err)
	}
}

func TestCopyBidirectionalContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	client, target, done := relayPipes(ctx, 0)
	defer client.Close()
	defer target.Close()

	cancel()
	if err := waitRelay(t, done); err != nil {
		t.Fatal(err)
	}
}

func TestCopyBidirectionalIdleTimeout(t *testing.T) {
	t.Parallel()

	client, target, done := relayPipes(context.Background(), 50*time.Millisecond)
	defer client.Close()
	defer target.Close()

	// Traffic keeps the relay alive past several idle periods.
	for range 4 {
		testutil.AssertEcho(t, client, target, []byte("tick"))
		time.Sleep(20 * time.Millisecond)
	}

	err := waitRelay(t, done)
	if err == nil || !strings.Contains(err.Error(), "idle") {
		t.Fatalf("got %v want idle timeout", err)
	}
}

func TestBufferPool(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(64)
	b := p.Get()
	if len(b) != 64 {
		t.Fatalf("got len %d want 64", len(b))
	}
	p.Put(b)
	p.Put(make([]byte, 10))

	for range 3 {
		if got := len(p.Get()); got != 64 {
			t.Fatalf("got len %d want 64", got)
		}
	}
}
