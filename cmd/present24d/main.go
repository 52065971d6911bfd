package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/api"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/config"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/logger"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/mitm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	fmt.Println("Configuration loaded:")
	fmt.Println(cfg)

	l := logger.New("present24d")
	l.SetDebug(cfg.Debug)

	attacker, err := mitm.New(mitm.Options{
		Workers: cfg.Attack.Workers,
		KeyBits: cfg.Attack.KeyBits,
		Logger:  logger.New("mitm"),
	})
	if err != nil {
		log.Fatalf("Invalid attack configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.New(cfg.Addr(), attacker, cfg.Server.MaxJobs, l)
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
	l.Info("API server stopped")
}
