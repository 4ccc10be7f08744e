package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"new-launcher/api"
	"new-launcher/config"
	"new-launcher/database"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *printConfig {
		if err := cfg.Dump(os.Stdout); err != nil {
			log.Fatalf("failed to print config: %v", err)
		}
		return
	}

	if !cfg.Auth.Enabled() {
		log.Printf("WARNING: no token configured, requests are not authenticated")
	}

	store := database.NewStore(cfg.UserSettingsDir)
	router := api.RegisterRoutes(store, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("new-launcher listening on %s, base URL %s, documents in %s",
		cfg.Addr(), cfg.BaseURL, store.Dir())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
