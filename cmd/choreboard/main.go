package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/choreboard/internal/config"
	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/logging"
	"github.com/dukerupert/choreboard/internal/notify"
	"github.com/dukerupert/choreboard/internal/scheduler"
	"github.com/dukerupert/choreboard/internal/server"
)

func main() {
	configFile := flag.String("config", os.Getenv("CHOREBOARD_CONFIG"), "path to a YAML config file")
	genVAPID := flag.Bool("gen-vapid", false, "print a new VAPID key pair and exit")
	flag.Parse()

	if *genVAPID {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("CHOREBOARD_PUSH_VAPID_PUBLIC_KEY=%s\nCHOREBOARD_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(cfg, db, logger)

	hour, minute, _ := cfg.ResetClock()
	sched := scheduler.New(scheduler.Config{
		Location:      cfg.Location(),
		ResetHour:     hour,
		ResetMinute:   minute,
		RetentionDays: cfg.Schedule.AuditRetentionDays,
	}, srv.Service().Resets, srv.Store().Audit, srv.RateLimiter(), srv.Metrics(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("choreboard listening", "addr", httpServer.Addr, "timezone", cfg.Location().String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Hub().Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := sched.Stop(); err != nil {
		logger.Error("scheduler shutdown", "error", err)
	}
	srv.Dispatcher().Wait()
}
