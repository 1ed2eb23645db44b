package dialer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/die-net/shoes/internal/testutil"
)

func TestIsConnRefused(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d := NewDirectDialer(Config{DialTimeout: 2 * time.Second})

	_, err := d.DialContext(ctx, "tcp", testutil.ClosedAddr(t))
	if err == nil {
		t.Fatal("expected dial error")
	}
	if !IsConnRefused(err) {
		t.Fatalf("IsConnRefused(%v) = false", err)
	}

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = d.DialContext(canceled, "tcp", testutil.ClosedAddr(t))
	if err == nil {
		t.Fatal("expected dial error")
	}
	if IsConnRefused(err) {
		t.Fatalf("IsConnRefused(%v) = true for a canceled dial", err)
	}

	if IsConnRefused(nil) {
		t.Fatal("IsConnRefused(nil) = true")
	}
	if IsConnRefused(errors.New("connection refused")) {
		t.Fatal("matched on error text")
	}
}
