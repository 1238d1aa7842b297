package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/clients"
	"github.com/agriconnect/service-dashboard/internal/config"
	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	applogger "github.com/agriconnect/service-dashboard/internal/logger"
	"github.com/agriconnect/service-dashboard/internal/session"
)

var (
	flagToken    string
	flagBackend  string
	flagTimezone string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Seller dashboard client for the agri marketplace",
	Long: `dashctl fetches a seller's sales analysis from the marketplace backend
and renders the dashboard (totals, growth and sales buckets) in the terminal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("DASHBOARD_TOKEN"), "bearer token of the seller (or DASHBOARD_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "backend base URL (default BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "", "timezone for bucket labels (default APP_TIMEZONE)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log backend calls")

	rootCmd.AddCommand(dashboardCmd, watchCmd)
}

// environment is what every subcommand needs to talk to the backend.
type environment struct {
	client   *clients.AgriClient
	session  *session.Session
	location *time.Location
	timeout  time.Duration
	logger   *zap.Logger
}

func setup() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.Backend.BaseURL = flagBackend
	}
	if flagTimezone != "" {
		cfg.App.Timezone = flagTimezone
	}

	sess, err := session.New(flagToken)
	if err != nil {
		return nil, fmt.Errorf("%w: pass --token or set DASHBOARD_TOKEN", err)
	}

	logger := zap.NewNop()
	if flagVerbose {
		if logger, err = applogger.NewLogger("development"); err != nil {
			return nil, err
		}
	}

	loc := cfg.App.Location()
	client := clients.NewAgriClient(&clients.AgriClientConfig{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		RetryPolicy: backend.DefaultRetryPolicy().WithMaxAttempts(cfg.Backend.MaxAttempts),
		Limiter:     backend.NewRateLimiter(backend.DefaultRateLimitConfig()),
		Location:    loc,
		Logger:      logger,
	})

	return &environment{
		client:   client,
		session:  sess,
		location: loc,
		timeout:  cfg.Backend.Timeout * time.Duration(cfg.Backend.MaxAttempts+1),
		logger:   logger,
	}, nil
}
