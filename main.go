package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"yellowair/auth"
	"yellowair/config"
	"yellowair/db"
	"yellowair/handlers"
	"yellowair/logging"
	"yellowair/middleware"
	"yellowair/repository"
	"yellowair/server"
	"yellowair/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "yellowair: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var configPath string

	flagSet := pflag.NewFlagSet("yellowair", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (environment variables override it)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.Setup(cfg.Env)
	features := config.LoadFeatures()
	log.WithFields(logrus.Fields{
		"env":          cfg.Env,
		"registration": features.RegistrationEnabled,
		"email":        features.EmailEnabled,
		"metrics":      features.MetricsEnabled,
		"rate_limit":   features.RateLimitEnabled,
		"admin_policy": cfg.Auth.AdminPolicy,
	}).Info("starting yellowair api")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := db.Open(connectCtx, cfg.DB.URL, cfg.DB.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	if cfg.DB.RunMigrations {
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
		log.Info("database schema up to date")
	}

	h := handlers.New(handlers.Deps{
		Store:       repository.New(conn),
		Codec:       auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Guard:       auth.NewGuard(cfg.Auth.AdminPolicy, cfg.Auth.AdminEmails),
		Mailer:      services.NewMailer(features.EmailEnabled, cfg.Mail, log),
		Notifier:    services.NewSlackNotifier(cfg.Mail.SlackWebhook, log),
		Log:         log,
		Features:    features,
		Auth:        cfg.Auth,
		AppURL:      cfg.Mail.AppURL,
		DataVersion: cfg.DataVersion,
	})

	r, err := server.NewEngine(cfg.Env, cfg.HTTPServer.TrustedProxies, features, log)
	if err != nil {
		return err
	}

	var authLimit gin.HandlerFunc
	if features.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		limiter.StartCleanup(10*time.Minute, ctx.Done())
		authLimit = limiter.Handler()
	}
	h.Routes(r, authLimit)

	return server.Serve(ctx, cfg.HTTPServer.Address, cfg.HTTPServer, r, log)
}
