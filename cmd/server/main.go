package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"arena-server/internal/config"
	"arena-server/internal/game"
	"arena-server/internal/logger"
	"arena-server/internal/server"
	"arena-server/internal/store"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	clientDir := flag.String("client", cfg.ClientDir, "Path to client directory")
	maskPath := flag.String("mask", cfg.MaskPath, "Obstacle mask image; empty runs without obstacles")
	settingsPath := flag.String("settings", cfg.SettingsPath, "YAML file with default game settings")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database for match history; empty disables it")
	flag.Parse()

	if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
		logger.Log.WithField("client", *clientDir).Warn("client directory not found, static files will 404")
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("could not load game settings")
	}

	var mask *game.Mask
	if *maskPath != "" {
		mask, err = game.LoadMask(*maskPath, cfg.MapWidth, cfg.MapHeight)
		if err != nil {
			logger.Log.WithError(err).WithField("path", *maskPath).Warn("mask unavailable, running without obstacles")
			mask = nil
		}
	}

	sessionCfg := server.SessionConfig{
		Defaults: settings,
		Width:    cfg.MapWidth,
		Height:   cfg.MapHeight,
		Mask:     mask,
	}
	hubCfg := server.HubConfig{PublicURL: cfg.PublicURL}

	if *dbPath != "" {
		db, err := store.Open(*dbPath)
		if err != nil {
			logger.Log.WithError(err).Fatal("could not open database")
		}
		defer db.Close()
		sessionCfg.Recorder = db
		hubCfg.DB = db
	}

	if cfg.AdminHash != "" {
		var settingsStore server.SettingStore
		if hubCfg.DB != nil {
			settingsStore = hubCfg.DB
		}
		admin, err := server.NewAdmin(cfg.AdminHash, cfg.JWTSecret, settingsStore)
		if err != nil {
			logger.Log.WithError(err).Fatal("invalid admin configuration")
		}
		hubCfg.Admin = admin
	} else {
		logger.Log.Info("ARENA_ADMIN_HASH not set, admin routes disabled")
	}

	hubCfg.Sessions = server.NewSessionManager(sessionCfg)
	hub := server.NewHub(hubCfg)
	done := make(chan struct{})
	go hub.Run(done)

	mux := server.SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Log.WithFields(logrus.Fields{
			"addr":   *addr,
			"client": *clientDir,
			"map":    []int{cfg.MapWidth, cfg.MapHeight},
			"mask":   mask != nil,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	<-stop
	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
	}
	close(done)
}
