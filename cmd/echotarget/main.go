// Command echotarget is a stand-in destination for manual proxy testing. It
// logs every line a client sends and writes the line back.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/die-net/shoes/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		port     = pflag.IntP("port", "p", 6666, "Port to listen on")
		bind     = pflag.String("bind", "127.0.0.1", "Address to listen on")
		logLevel = pflag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if *port <= 0 || *port > 65535 {
		return fmt.Errorf("invalid --port: %d", *port)
	}
	if err := logging.Configure(*logLevel, false); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(*bind, strconv.Itoa(*port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	context.AfterFunc(ctx, func() { _ = ln.Close() })

	log.Info().Str("addr", ln.Addr().String()).Msg("echo target listening")

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("shutting down")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go serve(c, log.With().Str("conn", uuid.NewString()).Str("client", c.RemoteAddr().String()).Logger())
	}
}

func serve(c net.Conn, log zerolog.Logger) {
	defer c.Close()

	log.Debug().Msg("accepted")

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		line := sc.Text()
		log.Info().Str("line", line).Msg("received")
		if _, err := fmt.Fprintln(c, line); err != nil {
			log.Error().Err(err).Msg("write")
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Error().Err(err).Msg("read")
		return
	}
	log.Debug().Msg("closed")
}
