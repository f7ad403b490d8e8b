// mosqcli is a small MQTT command-line client built on the async bridge.
//
// It connects to a broker, optionally publishes one message, and can stay
// attached watching topics:
//
//	mosqcli -topic sensors/kitchen/temp -payload 21.5 -qos 1
//	mosqcli -watch 'sensors/#'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/nerrad567/gray-logic-mosq/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-mosq/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	host       string
	port       int
	topic      string
	payload    string
	qos        int
	retain     bool
	watch      string
	timeout    time.Duration
}

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, parseFlags(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) *options {
	opts := &options{}
	fs := flag.NewFlagSet("mosqcli", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (optional)")
	fs.StringVar(&opts.host, "host", "", "broker host (overrides config)")
	fs.IntVar(&opts.port, "port", 0, "broker port (overrides config)")
	fs.StringVar(&opts.topic, "topic", "", "topic to publish to")
	fs.StringVar(&opts.payload, "payload", "", "message payload")
	fs.IntVar(&opts.qos, "qos", -1, "QoS 0, 1 or 2 (overrides config)")
	fs.BoolVar(&opts.retain, "retain", false, "publish with the retain flag")
	fs.StringVar(&opts.watch, "watch", "", "topic filter to subscribe and print")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-operation timeout")
	fs.Parse(args)
	return opts
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("starting mosqcli", "version", version, "commit", commit)

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	client := mqtt.NewClient(engine, mqtt.Options{
		LoopTimeout:    cfg.GetLoopTimeout(),
		ConnectTimeout: cfg.GetConnectTimeout(),
		Reconnect: mqtt.ReconnectOptions{
			Enabled:      cfg.Reconnect.Enabled,
			InitialDelay: cfg.GetInitialDelay(),
			MaxDelay:     cfg.GetMaxDelay(),
			MaxAttempts:  cfg.Reconnect.MaxAttempts,
		},
		Logger: log,
	})
	defer client.Close()

	connectCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	rc, err := client.Connect(connectCtx, cfg.Broker.Host, cfg.Broker.Port, cfg.GetKeepalive(), cfg.Broker.BindAddress)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to %s:%d: %w", cfg.Broker.Host, cfg.Broker.Port, err)
	}
	log.Info("connected", "host", cfg.Broker.Host, "port", cfg.Broker.Port, "rc", rc)

	qos := byte(cfg.QoS)
	if opts.qos >= 0 {
		qos = byte(opts.qos)
	}

	if opts.topic != "" {
		pubCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		mid, err := client.Publish(pubCtx, opts.topic, []byte(opts.payload), qos, opts.retain)
		cancel()
		if err != nil {
			return fmt.Errorf("publishing to %q: %w", opts.topic, err)
		}
		log.Info("published", "topic", opts.topic, "mid", mid, "qos", qos)
	}

	if opts.watch != "" {
		if err := watch(ctx, client, opts.watch, qos); err != nil {
			return err
		}
	}

	discCtx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	if _, err := client.Disconnect(discCtx); err != nil {
		log.Warn("disconnect failed", "error", err)
	}
	return nil
}

// watch subscribes to filter and prints every delivery until the context
// is cancelled.
func watch(ctx context.Context, client *mqtt.Client, filter string, qos byte) error {
	stream := client.Subscriber()
	defer stream.Close()

	subCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	granted, err := client.Subscribe(subCtx, filter, qos)
	cancel()
	if err != nil {
		return fmt.Errorf("subscribing to %q: %w", filter, err)
	}

	topicColor := color.New(color.FgCyan, color.Bold)
	metaColor := color.New(color.FgHiBlack)
	fmt.Printf("watching %s (granted qos %d), ^C to stop\n", filter, granted)

	for {
		msg, err := stream.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiving: %w", err)
		}
		topicColor.Print(msg.Topic)
		metaColor.Printf("  qos=%d retained=%v\n", msg.QoS, msg.Retained)
		fmt.Printf("%s\n", msg.Payload)
	}
}

// loadConfig resolves configuration from file, environment and flags.
// Flags win over everything.
func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.Load(opts.configPath)
	case os.Getenv("MOSQ_CONFIG") != "":
		cfg, err = config.Load(os.Getenv("MOSQ_CONFIG"))
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.host != "" {
		cfg.Broker.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Broker.Port = opts.port
	}
	if opts.qos >= 0 {
		cfg.QoS = opts.qos
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
