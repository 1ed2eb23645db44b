// Package socks5 implements the wire format and server-side handshake of the
// SOCKS5 protocol (RFC 1928) as spoken by shoes.
//
// Only the subset shoes serves is supported: protocol version 5, the "no
// authentication required" method, the CONNECT command and IPv4 addresses.
// Anything else decodes to one of the ErrUnsupported* errors.
//
// Decoding always runs over exactly the bytes received so far. A message that
// is cut short fails with ErrIncomplete, which means "read more and try
// again" rather than a protocol violation. [Handshake] does that buffering for
// a connection; [Advance] is the underlying per-chunk step.
package socks5
