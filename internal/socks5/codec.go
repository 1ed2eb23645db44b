package socks5

import "fmt"

// Version is the SOCKS protocol version byte.
type Version byte

const (
	Version5 Version = 0x05 // SOCKS Protocol Version 5
)

// ParseVersion decodes a version byte.
func ParseVersion(b byte) (Version, error) {
	if Version(b) != Version5 {
		return 0, unsupported(ErrUnsupportedVersion, b)
	}
	return Version5, nil
}

// AuthMethod is an authentication method, either offered by a client or
// selected by the server.
type AuthMethod byte

const (
	MethodNoAuth       AuthMethod = 0x00 // No authentication required
	MethodNoAcceptable AuthMethod = 0xFF // No acceptable methods
)

// ParseAuthMethod decodes a method selected by a server. Offered methods are
// kept as raw bytes since clients may offer methods shoes never selects.
func ParseAuthMethod(b byte) (AuthMethod, error) {
	switch m := AuthMethod(b); m {
	case MethodNoAuth, MethodNoAcceptable:
		return m, nil
	default:
		return 0, unsupported(ErrUnsupportedMethod, b)
	}
}

func (m AuthMethod) String() string {
	switch m {
	case MethodNoAuth:
		return "no authentication required"
	case MethodNoAcceptable:
		return "no acceptable methods"
	default:
		return fmt.Sprintf("method 0x%02x", byte(m))
	}
}

// SelectMethod picks the server's method from those offered: MethodNoAuth if
// present anywhere in offered, otherwise MethodNoAcceptable.
func SelectMethod(offered []AuthMethod) AuthMethod {
	for _, m := range offered {
		if m == MethodNoAuth {
			return MethodNoAuth
		}
	}
	return MethodNoAcceptable
}

// Command is the request command byte.
type Command byte

const (
	CommandConnect Command = 0x01 // Establish TCP/IP stream connection
)

// ParseCommand decodes a command byte. BIND and UDP ASSOCIATE are not
// supported.
func ParseCommand(b byte) (Command, error) {
	if Command(b) != CommandConnect {
		return 0, unsupported(ErrUnsupportedCommand, b)
	}
	return CommandConnect, nil
}

func (c Command) String() string {
	if c == CommandConnect {
		return "CONNECT"
	}
	return fmt.Sprintf("command 0x%02x", byte(c))
}

// AddressType is the ATYP byte preceding an address.
type AddressType byte

const (
	AddressIPv4 AddressType = 0x01 // IPv4 address (4 bytes)
)

// ParseAddressType decodes an address type byte. Domain names and IPv6 are
// not supported.
func ParseAddressType(b byte) (AddressType, error) {
	if AddressType(b) != AddressIPv4 {
		return 0, unsupported(ErrUnsupportedAddressType, b)
	}
	return AddressIPv4, nil
}

// ReplyCode is the REP field of a server reply.
type ReplyCode byte

const (
	ReplySucceeded            ReplyCode = 0x00 // Request granted
	ReplyServerFailure        ReplyCode = 0x01 // General SOCKS server failure
	ReplyConnectionNotAllowed ReplyCode = 0x02 // Connection not allowed by ruleset
	ReplyNetworkUnreachable   ReplyCode = 0x03 // Network unreachable
	ReplyHostUnreachable      ReplyCode = 0x04 // Host unreachable
	ReplyConnectionRefused    ReplyCode = 0x05 // Connection refused by destination
	ReplyTTLExpired           ReplyCode = 0x06 // TTL expired
	ReplyCommandNotSupported  ReplyCode = 0x07 // Command not supported
	ReplyAddrTypeNotSupported ReplyCode = 0x08 // Address type not supported
)

const maxReplyCode = ReplyAddrTypeNotSupported

var replyCodeNames = [...]string{
	ReplySucceeded:            "succeeded",
	ReplyServerFailure:        "general SOCKS server failure",
	ReplyConnectionNotAllowed: "connection not allowed by ruleset",
	ReplyNetworkUnreachable:   "network unreachable",
	ReplyHostUnreachable:      "host unreachable",
	ReplyConnectionRefused:    "connection refused",
	ReplyTTLExpired:           "TTL expired",
	ReplyCommandNotSupported:  "command not supported",
	ReplyAddrTypeNotSupported: "address type not supported",
}

// ParseReplyCode decodes a reply code byte.
func ParseReplyCode(b byte) (ReplyCode, error) {
	if ReplyCode(b) > maxReplyCode {
		return 0, unsupported(ErrUnsupportedReplyCode, b)
	}
	return ReplyCode(b), nil
}

func (c ReplyCode) String() string {
	if c > maxReplyCode {
		return fmt.Sprintf("reply 0x%02x", byte(c))
	}
	return replyCodeNames[c]
}
