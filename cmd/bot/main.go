package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fleetcare/internal/bot"
	"fleetcare/internal/botapi"
	"fleetcare/internal/config"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client := botapi.NewClient(cfg.APIBase)
	if err := client.Ping(ctx); err != nil {
		log.Printf("api not reachable yet: %v", err)
	}

	b, err := bot.New(cfg.BotToken, client, cfg.BookingWindowDays)
	if err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}

	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped: %v", err)
	}
	log.Println("bot exited gracefully")
}
