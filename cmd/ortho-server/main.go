// Package main OrthoAssist Gateway API Server
//
//	@title			OrthoAssist Gateway API
//	@version		1.0
//	@description	Browser-facing gateway for the OrthoAssist orthopedic triage dashboard: chat and upload proxies, report downloads and study history
//
//	@contact.name	API Support
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ortho-assist/config"
	_ "ortho-assist/docs" // This imports the docs package to initialize swagger
	"ortho-assist/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting OrthoAssist gateway...")
	srv := server.NewServer(cfg)

	go func() {
		log.Printf("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down OrthoAssist gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("OrthoAssist gateway stopped.")
}
