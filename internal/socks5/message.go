package socks5

import (
	"fmt"
	"io"
	"net/netip"

	"golang.org/x/crypto/cryptobyte"
)

// MethodRequest is the client's opening message:
//
//	+-----+----------+----------+
//	| VER | NMETHODS | METHODS  |
//	+-----+----------+----------+
//	|  1  |    1     | 1 to 255 |
type MethodRequest struct {
	Version Version
	Methods []AuthMethod
}

// Bytes encodes the request. It panics if more than 255 methods are given.
func (r MethodRequest) Bytes() []byte {
	b := cryptobyte.NewBuilder(make([]byte, 0, 2+len(r.Methods)))
	b.AddUint8(uint8(r.Version))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, m := range r.Methods {
			b.AddUint8(uint8(m))
		}
	})
	return b.BytesOrPanic()
}

func readMethodRequest(s *cryptobyte.String) (MethodRequest, error) {
	var ver uint8
	if !s.ReadUint8(&ver) {
		return MethodRequest{}, ErrIncomplete
	}
	version, err := ParseVersion(ver)
	if err != nil {
		return MethodRequest{}, err
	}

	var methods cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&methods) {
		return MethodRequest{}, ErrIncomplete
	}

	req := MethodRequest{Version: version, Methods: make([]AuthMethod, len(methods))}
	for i, m := range methods {
		req.Methods[i] = AuthMethod(m)
	}
	return req, nil
}

// MethodReply is the server's method selection: [VER, METHOD].
type MethodReply struct {
	Version Version
	Method  AuthMethod
}

func (r MethodReply) Bytes() []byte {
	return []byte{byte(r.Version), byte(r.Method)}
}

// ParseMethodReply decodes a method selection as received by a client.
func ParseMethodReply(buf []byte) (MethodReply, error) {
	s := cryptobyte.String(buf)

	var ver, method uint8
	if !s.ReadUint8(&ver) {
		return MethodReply{}, ErrIncomplete
	}
	version, err := ParseVersion(ver)
	if err != nil {
		return MethodReply{}, err
	}
	if !s.ReadUint8(&method) {
		return MethodReply{}, ErrIncomplete
	}
	m, err := ParseAuthMethod(method)
	if err != nil {
		return MethodReply{}, err
	}
	return MethodReply{Version: version, Method: m}, nil
}

// Request is a parsed CONNECT request:
//
//	+-----+-----+-------+------+----------+----------+
//	| VER | CMD |  RSV  | ATYP | DST.ADDR | DST.PORT |
//	+-----+-----+-------+------+----------+----------+
//	|  1  |  1  | X'00' |  1   |    4     |    2     |
type Request struct {
	Version  Version
	Command  Command
	AddrType AddressType
	Addr     netip.Addr
	Port     uint16
}

// NewConnectRequest builds a CONNECT request for dst, which must be IPv4.
func NewConnectRequest(dst netip.AddrPort) (Request, error) {
	addr := dst.Addr().Unmap()
	if !addr.Is4() {
		return Request{}, fmt.Errorf("%w: %s is not IPv4", ErrUnsupportedAddressType, addr)
	}
	return Request{
		Version:  Version5,
		Command:  CommandConnect,
		AddrType: AddressIPv4,
		Addr:     addr,
		Port:     dst.Port(),
	}, nil
}

// AddrPort returns the requested destination.
func (r Request) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(r.Addr, r.Port)
}

// Address returns the destination as "ip:port", suitable for dialing.
func (r Request) Address() string {
	return r.AddrPort().String()
}

func (r Request) Bytes() []byte {
	return appendMessage(make([]byte, 0, messageLen), r.Version, byte(r.Command), r.AddrType, r.Addr, r.Port)
}

// WriteTo writes the encoded request to w.
func (r Request) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// ParseRequest decodes a CONNECT request from the front of buf and reports
// how many bytes it used.
func ParseRequest(buf []byte) (Request, int, error) {
	s := cryptobyte.String(buf)
	req, err := readRequest(&s)
	if err != nil {
		return Request{}, 0, err
	}
	return req, len(buf) - len(s), nil
}

// readRequest validates fields strictly left to right, so the first missing
// or invalid field decides the error. The reserved byte is not checked.
func readRequest(s *cryptobyte.String) (Request, error) {
	var ver, cmd, atyp uint8
	if !s.ReadUint8(&ver) {
		return Request{}, ErrIncomplete
	}
	version, err := ParseVersion(ver)
	if err != nil {
		return Request{}, err
	}
	if !s.ReadUint8(&cmd) {
		return Request{}, ErrIncomplete
	}
	command, err := ParseCommand(cmd)
	if err != nil {
		return Request{}, err
	}
	if !s.Skip(1) {
		return Request{}, ErrIncomplete
	}
	if !s.ReadUint8(&atyp) {
		return Request{}, ErrIncomplete
	}
	addrType, err := ParseAddressType(atyp)
	if err != nil {
		return Request{}, err
	}
	addr, port, ok := readIPv4Port(s)
	if !ok {
		return Request{}, ErrIncomplete
	}
	return Request{
		Version:  version,
		Command:  command,
		AddrType: addrType,
		Addr:     addr,
		Port:     port,
	}, nil
}

// Reply is the server's answer to a CONNECT request. It has the same layout as
// [Request] with REP in place of CMD.
type Reply struct {
	Version  Version
	Code     ReplyCode
	AddrType AddressType
	BindAddr netip.Addr
	BindPort uint16
}

// NewReply builds the reply to req. The bound address and port echo the
// request's destination.
func NewReply(req Request, code ReplyCode) Reply {
	return Reply{
		Version:  req.Version,
		Code:     code,
		AddrType: req.AddrType,
		BindAddr: req.Addr,
		BindPort: req.Port,
	}
}

func (r Reply) Bytes() []byte {
	return appendMessage(make([]byte, 0, messageLen), r.Version, byte(r.Code), r.AddrType, r.BindAddr, r.BindPort)
}

// WriteTo writes the encoded reply to w.
func (r Reply) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// ParseReply decodes a reply as received by a client.
func ParseReply(buf []byte) (Reply, error) {
	s := cryptobyte.String(buf)

	var ver, rep, atyp uint8
	if !s.ReadUint8(&ver) {
		return Reply{}, ErrIncomplete
	}
	version, err := ParseVersion(ver)
	if err != nil {
		return Reply{}, err
	}
	if !s.ReadUint8(&rep) {
		return Reply{}, ErrIncomplete
	}
	code, err := ParseReplyCode(rep)
	if err != nil {
		return Reply{}, err
	}
	if !s.Skip(1) {
		return Reply{}, ErrIncomplete
	}
	if !s.ReadUint8(&atyp) {
		return Reply{}, ErrIncomplete
	}
	addrType, err := ParseAddressType(atyp)
	if err != nil {
		return Reply{}, err
	}
	addr, port, ok := readIPv4Port(&s)
	if !ok {
		return Reply{}, ErrIncomplete
	}
	return Reply{
		Version:  version,
		Code:     code,
		AddrType: addrType,
		BindAddr: addr,
		BindPort: port,
	}, nil
}

// messageLen is the encoded size of an IPv4 request or reply.
const messageLen = 10

func appendMessage(buf []byte, ver Version, field byte, atyp AddressType, addr netip.Addr, port uint16) []byte {
	b := cryptobyte.NewBuilder(buf)
	b.AddUint8(uint8(ver))
	b.AddUint8(field)
	b.AddUint8(0x00) // reserved
	b.AddUint8(uint8(atyp))
	var a4 [4]byte
	if addr = addr.Unmap(); addr.Is4() {
		a4 = addr.As4()
	}
	b.AddBytes(a4[:])
	b.AddUint16(port)
	return b.BytesOrPanic()
}

func readIPv4Port(s *cryptobyte.String) (netip.Addr, uint16, bool) {
	var a4 [4]byte
	if !s.CopyBytes(a4[:]) {
		return netip.Addr{}, 0, false
	}
	var port uint16
	if !s.ReadUint16(&port) {
		return netip.Addr{}, 0, false
	}
	return netip.AddrFrom4(a4), port, true
}
