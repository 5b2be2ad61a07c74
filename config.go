package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Values come from the .env file, then the
// process environment, then command line flags.
type Config struct {
	Addr      string
	DBPath    string
	ClientDir string
	PublicURL string // advertised join URL for /qr; derived from the request when empty
	Bots      int
	Seed      int64 // 0 = time based
}

// LoadConfig builds a Config. A missing env file is not an error.
func LoadConfig(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Addr:      envOr("ARENA_ADDR", ":8080"),
		DBPath:    envOr("ARENA_DB", "arena.db"),
		ClientDir: os.Getenv("ARENA_CLIENT_DIR"),
		PublicURL: os.Getenv("ARENA_PUBLIC_URL"),
		Bots:      2,
	}
	if v := os.Getenv("ARENA_BOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("ARENA_BOTS: %w", err)
		}
		cfg.Bots = n
	}
	if v := os.Getenv("ARENA_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ARENA_SEED: %w", err)
		}
		cfg.Seed = n
	}

	fs := flag.NewFlagSet("cellarena", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.ClientDir, "client", cfg.ClientDir, "Path to client directory (default: ../client)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Public join URL encoded by /qr")
	fs.IntVar(&cfg.Bots, "bots", cfg.Bots, "Number of bot players")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Simulation random seed (0 = time based)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Bots < 0 {
		return Config{}, fmt.Errorf("bots must be >= 0, got %d", cfg.Bots)
	}
	if cfg.ClientDir == "" {
		cfg.ClientDir = defaultClientDir()
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultClientDir() string {
	exe, _ := os.Executable()
	dir := filepath.Join(filepath.Dir(exe), "..", "client")
	// Fallback for development
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../client"
	}
	return dir
}
