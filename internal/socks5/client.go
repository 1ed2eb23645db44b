package socks5

import (
	"fmt"
	"io"
	"net/netip"
)

// ClientDial negotiates "no authentication" over rw and asks the server to
// CONNECT to dst. On success rw is ready to carry relayed bytes.
func ClientDial(rw io.ReadWriter, dst netip.AddrPort) (Reply, error) {
	if err := ClientNegotiate(rw, MethodNoAuth); err != nil {
		return Reply{}, err
	}
	return ClientConnect(rw, dst)
}

// ClientNegotiate offers methods and reads the server's selection. A
// selection of MethodNoAcceptable returns ErrNoAcceptableMethod.
func ClientNegotiate(rw io.ReadWriter, methods ...AuthMethod) error {
	if _, err := rw.Write(MethodRequest{Version: Version5, Methods: methods}.Bytes()); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	buf := make([]byte, 2)
	if _, err := io.ReadFull(rw, buf); err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}
	rep, err := ParseMethodReply(buf)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	switch rep.Method {
	case MethodNoAuth:
		return nil
	case MethodNoAcceptable:
		return ErrNoAcceptableMethod
	default:
		return fmt.Errorf("unsupported negotiation method: %s", rep.Method)
	}
}

// ClientConnect sends a CONNECT request for dst and reads the reply. A reply
// other than ReplySucceeded is returned together with a *ReplyError.
func ClientConnect(rw io.ReadWriter, dst netip.AddrPort) (Reply, error) {
	req, err := NewConnectRequest(dst)
	if err != nil {
		return Reply{}, err
	}
	if _, err := req.WriteTo(rw); err != nil {
		return Reply{}, fmt.Errorf("write request: %w", err)
	}

	buf := make([]byte, messageLen)
	if _, err := io.ReadFull(rw, buf); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	rep, err := ParseReply(buf)
	if err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if rep.Code != ReplySucceeded {
		return rep, &ReplyError{Reply: rep}
	}
	return rep, nil
}
