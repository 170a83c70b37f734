package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lotto/api"
	"lotto/bot"
	"lotto/config"
	"lotto/events"
	"lotto/infrastructure"
	"lotto/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithFields(log.Fields{
		"driver":      cfg.DatabaseDriver,
		"environment": cfg.Environment,
	}).Info("Starting lotto...")

	eventBus := events.NewBus()
	metrics.Register(prometheus.DefaultRegisterer)

	st, err := openStore(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}()
		infrastructure.NewNATSEventForwarder(natsClient).Attach(eventBus)
		log.WithField("servers", cfg.NATSServers).Info("Forwarding lottery events to NATS")
	}

	lotteryService, err := newLotteryService(cfg, st.uowFactory)
	if err != nil {
		return err
	}

	routerCfg := api.RouterConfig{CORSOrigins: cfg.HTTPCORSOrigins}
	if cfg.HTTPJWTSecret != "" {
		routerCfg.Tokens = api.NewTokenManager(cfg.HTTPJWTSecret)
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(lotteryService, routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var discordBot *bot.Bot
	if cfg.DiscordEnabled() {
		discordBot, err = bot.New(bot.Config{
			Token:        cfg.DiscordToken,
			GuildID:      cfg.DiscordGuildID,
			CurrencyName: cfg.CurrencyName,
		}, lotteryService)
		if err != nil {
			_ = server.Close()
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
	} else {
		log.Info("DISCORD_TOKEN not set, Discord bot disabled")
	}

	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("Shutting down...")

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown timeout exceeded")
	}

	log.Info("Shutdown completed")
	return nil
}
