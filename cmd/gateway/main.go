// Command gateway is the public entry point. It relays /api traffic to the
// internal API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"yellowair/config"
	"yellowair/logging"
	"yellowair/proxy"
	"yellowair/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var configPath string

	flagSet := pflag.NewFlagSet("gateway", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (environment variables override it)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.Setup(cfg.Env)
	features := config.LoadFeatures()

	client, err := proxy.NewClient(cfg.Proxy, log)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"api":         cfg.Proxy.APIBaseURL,
		"timeout":     cfg.Proxy.Timeout.String(),
		"max_retries": cfg.Proxy.MaxRetries,
	}).Info("starting yellowair gateway")

	r, err := server.NewEngine(cfg.Env, cfg.HTTPServer.TrustedProxies, features, log)
	if err != nil {
		return err
	}
	proxy.NewGateway(client, log).Routes(r)

	return server.Serve(ctx, cfg.Proxy.Address, cfg.HTTPServer, r, log)
}
