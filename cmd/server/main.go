// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/config"
	"github.com/javajoker/imi-royalty/internal/database"
	"github.com/javajoker/imi-royalty/internal/events"
	"github.com/javajoker/imi-royalty/internal/ledger"
	"github.com/javajoker/imi-royalty/internal/router"
	"github.com/javajoker/imi-royalty/internal/royalty"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Ledger gateway
	var gw ledger.Gateway
	switch cfg.Ledger.Mode {
	case "memory":
		gw = ledger.NewMemoryLedger()
		logrus.Warn("Running against the in-memory ledger; claims will not settle on chain")
	default:
		evm, err := ledger.NewEVMGateway(cfg.Ledger)
		if err != nil {
			log.Fatal("Failed to initialize ledger gateway:", err)
		}
		logrus.WithField("account", evm.Account()).Info("Ledger gateway ready")
		gw = evm
	}

	// Notification channel: in-process bus plus the persisted flag store
	// the poll backstop drains.
	bus := events.NewBus()
	flags, err := events.OpenFlagStore(cfg.Reconcile.FlagDBPath)
	if err != nil {
		log.Fatal("Failed to open notification flag store:", err)
	}
	defer flags.Close()

	// Royalty engine
	store := royalty.NewStore()
	resolver := royalty.NewResolver(store)
	reconciler := royalty.NewReconciler(gw, store, bus, flags)
	if err := reconciler.Start(cfg.Reconcile.PollSpec); err != nil {
		log.Fatal("Failed to start reconciler:", err)
	}
	defer reconciler.Stop()

	claimer := royalty.NewClaimer(gw, store, resolver, reconciler,
		database.NewReceiptStore(db),
		time.Duration(cfg.Reconcile.ClaimTimeoutSeconds)*time.Second)

	// Initialize router
	r := router.Initialize(db, cfg, router.Deps{
		Gateway:    gw,
		Store:      store,
		Resolver:   resolver,
		Reconciler: reconciler,
		Claimer:    claimer,
		Bus:        bus,
		Flags:      flags,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
