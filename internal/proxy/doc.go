// Package proxy implements the shoes SOCKS5 server.
//
// It contains the accept loop, the per-connection handler that takes a
// client from handshake to relay, and shared connection plumbing such as
// keepalive listeners and bidirectional copy.
package proxy
