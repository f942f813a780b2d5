package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mclarke/listing-gateway/internal/amazon"
	"github.com/mclarke/listing-gateway/internal/api"
	"github.com/mclarke/listing-gateway/internal/config"
	"github.com/mclarke/listing-gateway/internal/ebay"
	"github.com/mclarke/listing-gateway/internal/marketplace"
	"github.com/mclarke/listing-gateway/internal/ratelimit"
	"github.com/mclarke/listing-gateway/pkg/logger"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	paapiBucket := ratelimit.New(
		cfg.Amazon.PAAPI.RateLimit.Capacity,
		cfg.Amazon.PAAPI.RateLimit.RefillPerSecond,
	)
	rapidBucket := ratelimit.New(
		cfg.Amazon.RapidAPI.RateLimit.Capacity,
		cfg.Amazon.RapidAPI.RateLimit.RefillPerSecond,
	)
	ebayBucket := ratelimit.New(
		cfg.Ebay.RateLimit.Capacity,
		cfg.Ebay.RateLimit.RefillPerSecond,
	)

	buckets := map[string]*ratelimit.Bucket{}

	amazonClient, err := amazon.SelectClient(amazon.Settings{
		Preferred:  cfg.Amazon.Provider,
		AccessKey:  cfg.Amazon.PAAPI.AccessKey,
		SecretKey:  cfg.Amazon.PAAPI.SecretKey,
		PartnerTag: cfg.Amazon.PAAPI.PartnerTag,
		Region:     cfg.Amazon.PAAPI.Region,
		APIKey:     cfg.Amazon.RapidAPI.APIKey,
		APIHost:    cfg.Amazon.RapidAPI.APIHost,
	}, paapiBucket, rapidBucket, slogger)
	switch {
	case err == nil:
		switch amazonClient.Name() {
		case amazon.ProviderPAAPI:
			buckets[amazon.ProviderPAAPI] = paapiBucket
		case amazon.ProviderRapidAPI:
			buckets[amazon.ProviderRapidAPI] = rapidBucket
		}
	case errors.Is(err, domain.ErrNotConfigured):
		cliLog.Warn("no amazon provider configured, amazon requests will fail")
		amazonClient = nil
	default:
		return fmt.Errorf("building amazon client: %w", err)
	}

	var ebaySearcher marketplace.Searcher
	ebayClient, err := ebay.NewFindingClient(
		cfg.Ebay.AppID,
		ebayBucket,
		ebay.WithFindingGlobalID(cfg.Ebay.GlobalID),
		ebay.WithFindingLogger(slogger),
	)
	switch {
	case err == nil:
		ebaySearcher = ebayClient
		buckets[ebay.ProviderName] = ebayBucket
	case errors.Is(err, domain.ErrNotConfigured):
		cliLog.Warn("no ebay app id configured, ebay requests will fail")
	default:
		return fmt.Errorf("building ebay client: %w", err)
	}

	if amazonClient == nil && ebaySearcher == nil {
		return errors.New("no provider configured: set amazon or ebay credentials")
	}

	router := marketplace.New(amazonClient, ebaySearcher,
		marketplace.WithRouterLogger(slogger))

	srv := api.New(api.Options{
		Gateway:          router,
		Buckets:          buckets,
		Logger:           slogger,
		InboundPerSecond: cfg.Server.RateLimit.PerSecond,
		InboundBurst:     cfg.Server.RateLimit.Burst,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	cliLog.Info("starting server", "addr", addr)

	// Start server in a goroutine.
	go func() {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cliLog.Error("server error", "err", err)
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cliLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	cliLog.Info("server stopped")
	return nil
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
