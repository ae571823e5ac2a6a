package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sbtid-verifier-bot/internal/bot"
	"sbtid-verifier-bot/internal/common/config"
	"sbtid-verifier-bot/internal/common/logger"
	nftservice "sbtid-verifier-bot/internal/features/nft/service"
	"sbtid-verifier-bot/internal/features/webapp"
	"sbtid-verifier-bot/internal/http"
	"sbtid-verifier-bot/internal/platform/telegram"
	"sbtid-verifier-bot/internal/platform/toncenter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init("sbtid-verifier-bot", cfg.LogLevel)
	logger.Info().
		Bool("debug", cfg.Debug).
		Str("contract", cfg.Ton.ContractAddress).
		Msg("Starting Tung Tung Tung Sahur NFT bot")

	tonClient := toncenter.NewClient(cfg.Ton.Endpoint, time.Duration(cfg.Ton.CacheTimeout)*time.Second)
	telegramClient := telegram.NewClient(cfg.Telegram.BotToken)
	verifier := webapp.NewVerifier(cfg.Telegram.BotToken)
	nftService := nftservice.NewNFTService(tonClient, cfg.Ton.ContractAddress)

	router := bot.NewRouter(telegramClient, verifier, nftService, cfg.Ton.ContractAddress, cfg.WebApp.BaseURL)
	server := http.New(cfg, verifier, nftService, tonClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return router.Run(ctx)
	})
	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		return server.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Service terminated")
	}

	logger.Info().Msg("Service stopped")
}
