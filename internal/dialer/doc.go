// Package dialer opens the outbound connection to a CONNECT target, either
// directly or through an upstream SOCKS5 proxy, and classifies dial failures
// for the reply sent back to the client.
package dialer
