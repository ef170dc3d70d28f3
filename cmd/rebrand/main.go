// Command rebrand applies airline name, code and logo to every matching
// flight in one statement.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"yellowair/config"
	"yellowair/db"
	"yellowair/logging"
	"yellowair/models"
	"yellowair/repository"
)

// brander is the part of the repository this command needs.
type brander interface {
	BulkUpdateAirlineBranding(ctx context.Context, match models.BrandingMatch, values models.Branding) (int64, error)
}

type options struct {
	configPath string
	match      models.BrandingMatch
	values     models.Branding
	timeout    time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "rebrand: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "rebrand: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	flagSet := pflag.NewFlagSet("rebrand", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flagSet.StringSliceVar(&opts.match.Names, "match-name", []string{"Yellow Airlines"}, "exact airline names to match")
	flagSet.StringSliceVar(&opts.match.Codes, "match-code", []string{"YA"}, "exact airline codes to match")
	flagSet.StringSliceVar(&opts.match.NameContains, "match-contains", []string{"Yellow"}, "airline name substrings to match")
	flagSet.StringVar(&opts.values.Airline, "airline", "Yellow Airlines", "airline name to set")
	flagSet.StringVar(&opts.values.AirlineCode, "code", "YA", "airline code to set")
	flagSet.StringVar(&opts.values.AirlineLogo, "logo", "/images/airlines/yellow-airlines.png", "logo path to set (empty clears it)")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if opts.values.Airline == "" || opts.values.AirlineCode == "" {
		return nil, errors.New("--airline and --code must not be empty")
	}
	if opts.match.Empty() {
		return nil, repository.ErrEmptyMatch
	}
	return opts, nil
}

func run(opts *options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.Setup(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DB.URL, 1)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	updated, err := rebrand(ctx, repository.New(conn), opts, log)
	if err != nil {
		return err
	}
	fmt.Printf("updated %d flights\n", updated)
	return nil
}

func rebrand(ctx context.Context, repo brander, opts *options, log *logrus.Logger) (int64, error) {
	updated, err := repo.BulkUpdateAirlineBranding(ctx, opts.match, opts.values)
	if err != nil {
		return 0, fmt.Errorf("update branding: %w", err)
	}

	log.WithFields(logrus.Fields{
		"airline": opts.values.Airline,
		"code":    opts.values.AirlineCode,
		"logo":    opts.values.AirlineLogo,
		"updated": updated,
	}).Info("airline branding updated")
	return updated, nil
}
