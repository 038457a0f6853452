package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/countervalue/market-cache/config"
	"github.com/countervalue/market-cache/core"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [server|sync]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	mode := core.ModeServer
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "server":
			mode = core.ModeServer
		case "sync":
			mode = core.ModeSync
		default:
			usage()
		}
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	if err := cfg.Validate(mode == core.ModeSync || cfg.HackSyncInServer); err != nil {
		log.Fatal("Invalid config: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		cancel()
	}()

	registry, err := core.Setup(ctx, cfg, mode)
	if err != nil {
		log.Fatal("Setup failed: ", err)
	}

	if err := registry.StartAll(ctx); err != nil {
		registry.StopAll()
		log.Fatal("Failed to start services: ", err)
	}
	log.Printf("Running in %s mode", mode)

	<-ctx.Done()
	registry.StopAll()
}
