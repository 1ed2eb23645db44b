package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/shoes/internal/dialer"
	"github.com/die-net/shoes/internal/logging"
	"github.com/die-net/shoes/internal/proxy"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings is the resolved server configuration from flags, environment and
// an optional config file.
type settings struct {
	Port               int
	Bind               string
	Upstream           string
	DialTimeout        time.Duration
	NegotiationTimeout time.Duration
	IdleTimeout        time.Duration
	TCPKeepAlive       string
	ReusePort          bool
	Verbose            bool
	LogLevel           string
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("shoes", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.IntP("port", "p", 7474, "Port to listen on")
	fs.String("bind", "127.0.0.1", "Address to listen on")
	fs.String("upstream", "direct://", "Where to dial targets: direct:// | socks5://[user:pass@]host:port")
	fs.Duration("dial-timeout", 10*time.Second, "Timeout for TCP connect to the target")
	fs.Duration("negotiation-timeout", 10*time.Second, "Timeout for the SOCKS5 handshake and target dial (0 disables)")
	fs.Duration("idle-timeout", 0, "Close relays idle for this long (0 disables)")
	fs.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
	fs.Bool("reuse-port", false, "Set SO_REUSEPORT on the listening socket")
	fs.Bool("verbose", false, "Enable per-connection debug logging")
	fs.String("log-level", "", "Log level (trace, debug, info, warn, error); overrides --verbose")
	fs.String("config", "", "Optional config file (yaml, toml, json)")

	return fs
}

// loadSettings parses args and layers SHOES_* environment variables and the
// config file under them.
func loadSettings(args []string) (settings, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("shoes")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return settings{}, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Port:               v.GetInt("port"),
		Bind:               v.GetString("bind"),
		Upstream:           v.GetString("upstream"),
		DialTimeout:        v.GetDuration("dial-timeout"),
		NegotiationTimeout: v.GetDuration("negotiation-timeout"),
		IdleTimeout:        v.GetDuration("idle-timeout"),
		TCPKeepAlive:       v.GetString("tcp-keepalive"),
		ReusePort:          v.GetBool("reuse-port"),
		Verbose:            v.GetBool("verbose"),
		LogLevel:           v.GetString("log-level"),
	}

	if s.Port <= 0 || s.Port > 65535 {
		return settings{}, fmt.Errorf("invalid --port: %d", s.Port)
	}
	for name, d := range map[string]time.Duration{
		"dial-timeout":        s.DialTimeout,
		"negotiation-timeout": s.NegotiationTimeout,
		"idle-timeout":        s.IdleTimeout,
	} {
		if d < 0 {
			return settings{}, fmt.Errorf("invalid --%s: must be >= 0", name)
		}
	}

	return s, nil
}

func run(args []string) error {
	s, err := loadSettings(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := logging.Configure(s.LogLevel, s.Verbose); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	ka, err := parseTCPKeepAlive(s.TCPKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	cfg := proxy.Config{
		NegotiationTimeout: s.NegotiationTimeout,
		IdleTimeout:        s.IdleTimeout,
		KeepAlive:          ka,
		Logger:             log.Logger,
	}

	dialCfg := dialer.Config{
		DialTimeout: s.DialTimeout,
		KeepAlive:   cfg.KeepAlive,
	}

	cfg.Dialer, err = dialer.New(dialCfg, s.Upstream)
	if err != nil {
		return fmt.Errorf("invalid --upstream: %w", err)
	}

	g, ctx := errgroup.WithContext(context.Background())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
	ln, err := proxy.ListenTCP(ctx, "tcp", addr, cfg.KeepAlive, s.ReusePort)
	if err != nil {
		return fmt.Errorf("socks5 listen: %w", err)
	}
	s5 := proxy.NewSOCKS5Server(ctx, cfg)
	context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})

	g.Go(func() error {
		if err := s5.Serve(ln); err != nil {
			return fmt.Errorf("socks5 serve: %w", err)
		}
		return nil
	})

	log.Info().
		Str("addr", ln.Addr().String()).
		Str("upstream", s.Upstream).
		Msg("socks5 proxy listening")

	err = g.Wait()

	log.Info().Msg("shutting down")
	return err
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return net.KeepAliveConfig{}, errors.New("empty")
	}
	if s == "on" {
		return net.KeepAliveConfig{Enable: true}, nil
	}
	if s == "off" {
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveSeconds(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveSeconds(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     keepIdle,
		Interval: keepIntvl,
		Count:    keepCnt,
	}, nil
}

func parsePositiveSeconds(s string) (time.Duration, error) {
	n, err := parsePositiveInt(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}
