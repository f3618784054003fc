// Package main is the entry point for the CKBFS faucet database migration tool.
// This tool applies the embedded SQLite or PostgreSQL schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prn-tf/ckbfs-faucet/internal/config"
	"github.com/prn-tf/ckbfs-faucet/internal/database"
	"github.com/prn-tf/ckbfs-faucet/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("CKBFS Faucet Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := run(command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, _, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if command == "up" {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	current, latest, err := db.Version(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Driver:          %s\n", cfg.Database.Driver)
	fmt.Printf("Current version: %d\n", current)
	fmt.Printf("Latest version:  %d\n", latest)
	if current < latest {
		fmt.Printf("Pending:         %d migration(s)\n", latest-current)
	}
	return nil
}

func printUsage() {
	fmt.Println(`CKBFS Faucet Migration Tool

Usage:
  faucet-migrate <command> [--config <path>]

Commands:
  up          Apply all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Environment Variables:
  FAUCET_DATABASE_DRIVER    sqlite or postgres
  FAUCET_DATABASE_PATH      SQLite database file
  FAUCET_DATABASE_HOST      PostgreSQL host (see configs/config.example.yaml)

Examples:
  faucet-migrate up
  faucet-migrate status --config /etc/ckbfs-faucet/config.yaml`)
}
