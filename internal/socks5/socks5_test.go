package socks5

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"testing"

	"golang.org/x/sync/errgroup"
)

// serveHandshake runs the server side of a handshake on conn and answers the
// CONNECT request with code.
func serveHandshake(conn net.Conn, code ReplyCode) error {
	h := NewHandshake()
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		reply, err := h.Feed(buf[:n])
		for err == nil {
			switch st := h.State().(type) {
			case AwaitingRequest:
				if _, err := conn.Write(reply); err != nil {
					return err
				}
				if st.Selected() == MethodNoAcceptable {
					return ErrNoAcceptableMethod
				}
			case Completed:
				_, err := NewReply(st.Request, code).WriteTo(conn)
				return err
			}
			reply, err = h.Feed(nil)
		}
		if !errors.Is(err, ErrIncomplete) {
			return err
		}
	}
}

func TestClientDialToServer(t *testing.T) {
	tests := []struct {
		name    string
		code    ReplyCode
		wantErr bool
	}{
		{name: "succeeded", code: ReplySucceeded},
		{name: "refused", code: ReplyConnectionRefused, wantErr: true},
		{name: "server failure", code: ReplyServerFailure, wantErr: true},
	}

	dst := netip.MustParseAddrPort("127.0.0.1:6666")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientConn, serverConn := net.Pipe()
			defer clientConn.Close()
			defer serverConn.Close()

			g := errgroup.Group{}
			g.Go(func() error {
				return serveHandshake(serverConn, tt.code)
			})

			rep, err := ClientDial(clientConn, dst)
			if tt.wantErr {
				var re *ReplyError
				if !errors.As(err, &re) {
					t.Fatalf("got %v want *ReplyError", err)
				}
				if re.Reply.Code != tt.code {
					t.Fatalf("got code %s want %s", re.Reply.Code, tt.code)
				}
			} else if err != nil {
				t.Fatal(err)
			}
			if rep.Code != tt.code {
				t.Fatalf("got code %s want %s", rep.Code, tt.code)
			}
			if got := netip.AddrPortFrom(rep.BindAddr, rep.BindPort); got != dst {
				t.Fatalf("bound address %s, want echo of %s", got, dst)
			}
			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestClientNegotiateNoAcceptable(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		err := serveHandshake(serverConn, ReplySucceeded)
		if !errors.Is(err, ErrNoAcceptableMethod) {
			return fmt.Errorf("server: got %v want ErrNoAcceptableMethod", err)
		}
		return nil
	})

	if err := ClientNegotiate(clientConn, 0x02); !errors.Is(err, ErrNoAcceptableMethod) {
		t.Fatalf("got %v want ErrNoAcceptableMethod", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
