package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cellarena/game"
)

func main() {
	cfg, err := LoadConfig(".env", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	analytics := NewAnalytics(db)
	defer analytics.Stop()

	arena := NewArena(ArenaOptions{
		World:   game.DefaultConfig(),
		Store:   db,
		Tracker: analytics,
		Bots:    cfg.Bots,
		Seed:    cfg.Seed,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		arena.Run(ctx)
		close(done)
	}()

	hub := NewHub(arena, db, analytics)
	go hub.Run()

	mux := SetupRoutes(hub, cfg.ClientDir, cfg.PublicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s (%s)", cfg.Addr, arena)
		log.Printf("Serving client files from %s", cfg.ClientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	shutdownCtx, release := context.WithTimeout(context.Background(), 5*time.Second)
	defer release()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	cancel()
	<-done
}
