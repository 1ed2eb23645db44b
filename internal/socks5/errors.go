package socks5

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that a message ended before all of its fields
	// were read. Callers should read more input and retry.
	ErrIncomplete = errors.New("socks5: incomplete input")

	ErrUnsupportedVersion     = errors.New("socks5: unsupported version")
	ErrUnsupportedMethod      = errors.New("socks5: unsupported method")
	ErrUnsupportedCommand     = errors.New("socks5: unsupported command")
	ErrUnsupportedAddressType = errors.New("socks5: unsupported address type")
	ErrUnsupportedReplyCode   = errors.New("socks5: unsupported reply code")

	// ErrNoAcceptableMethod is returned once the server has told the client
	// that none of its offered methods is acceptable. The connection cannot
	// make further progress.
	ErrNoAcceptableMethod = errors.New("socks5: no acceptable authentication method")
)

// IsProtocolError reports whether err was caused by malformed or unsupported
// peer input.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrUnsupportedMethod) ||
		errors.Is(err, ErrUnsupportedCommand) ||
		errors.Is(err, ErrUnsupportedAddressType) ||
		errors.Is(err, ErrUnsupportedReplyCode)
}

func unsupported(sentinel error, b byte) error {
	return fmt.Errorf("%w: 0x%02x", sentinel, b)
}

// ReplyError is returned by [ClientConnect] when the server answered the
// CONNECT request with anything other than ReplySucceeded.
type ReplyError struct {
	Reply Reply
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("socks5: connect failed: %s", e.Reply.Code)
}
