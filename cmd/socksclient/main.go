// Command socksclient makes one CONNECT through a shoes proxy, prints the
// reply, sends a single line to the target and prints what comes back.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/die-net/shoes/internal/logging"
	"github.com/die-net/shoes/internal/socks5"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		host       = pflag.StringP("host", "h", "127.0.0.1", "SOCKS5 proxy host")
		port       = pflag.IntP("port", "p", 7474, "SOCKS5 proxy port")
		targetHost = pflag.String("target-host", "", "Target IPv4 address (defaults to --host)")
		targetPort = pflag.Int("target-port", 6666, "Target port")
		message    = pflag.String("message", "", "Line to send to the target; read from stdin when empty")
		timeout    = pflag.Duration("timeout", 10*time.Second, "Timeout for connecting and for the target's answer")
		logLevel   = pflag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if err := logging.Configure(*logLevel, false); err != nil {
		return err
	}

	if *targetHost == "" {
		*targetHost = *host
	}
	dst, err := targetAddr(*targetHost, *targetPort)
	if err != nil {
		return err
	}

	proxyAddr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := net.DialTimeout("tcp", proxyAddr, *timeout)
	if err != nil {
		return fmt.Errorf("connect to proxy: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(*timeout))
	rep, err := socks5.ClientDial(conn, dst)
	if err != nil {
		return fmt.Errorf("socks5 connect %s via %s: %w", dst, proxyAddr, err)
	}
	log.Info().
		Stringer("reply", rep.Code).
		Stringer("bound", netip.AddrPortFrom(rep.BindAddr, rep.BindPort)).
		Msg("connected")

	line := *message
	if line == "" {
		line, err = bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	line = strings.TrimRight(line, "\r\n") + "\n"

	_ = conn.SetDeadline(time.Now().Add(*timeout))
	if _, err := conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	answer, err := bufio.NewReader(conn).ReadString('\n')
	if answer != "" {
		fmt.Print(answer)
	}
	var ne net.Error
	if err != nil && !(errors.As(err, &ne) && ne.Timeout()) {
		log.Debug().Err(err).Msg("target closed")
	}
	return nil
}

func targetAddr(host string, port int) (netip.AddrPort, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid --target-host: %w", err)
	}
	if !addr.Unmap().Is4() {
		return netip.AddrPort{}, fmt.Errorf("invalid --target-host %s: only IPv4 targets are supported", host)
	}
	if port <= 0 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("invalid --target-port: %d", port)
	}
	return netip.AddrPortFrom(addr.Unmap(), uint16(port)), nil
}
