// Package main provides the entry point for the dbsandbot Discord bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/txn2/dbsandbot/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type botOptions struct {
	configPath  string
	showVersion bool
}

func parseFlags() botOptions {
	opts := botOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func loadConfig(opts botOptions) (*server.Config, error) {
	if opts.configPath != "" {
		return server.LoadConfig(opts.configPath)
	}
	return server.DefaultConfig(), nil
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("dbsandbot version %s\n", server.Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	ctx := setupSignalHandler()
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("starting bot: %w", err)
	}

	<-ctx.Done()
	return s.Stop()
}
