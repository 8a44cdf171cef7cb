package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"library-backend/internal/app"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/logger"
)

//go:generate swag init -g main.go -o docs --parseInternal

// @title        Library Lending API
// @version      1.0
// @description  Catalog, borrowing, returns and late fees for a small library.
// @BasePath     /api/v1
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config yaml")
	flag.Parse()

	// 設定読み込み
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Mode, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting", zap.String("mode", cfg.Mode), zap.String("storage", cfg.Storage), zap.String("version", cfg.Version))

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	certFile, keyFile := certPaths(cfg)
	go func() {
		var err error
		if certFile != "" {
			log.Info("listening (TLS)", zap.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Info("listening", zap.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// certPaths は config/tls/<mode>/ 配下の証明書を返す。ファイルが無ければ平文で待ち受ける
func certPaths(cfg *config.Config) (string, string) {
	if cfg.Certificate.Cert == "" || cfg.Certificate.Key == "" {
		return "", ""
	}
	dir := filepath.Join("config", "tls", cfg.Mode)
	cert := filepath.Join(dir, cfg.Certificate.Cert)
	key := filepath.Join(dir, cfg.Certificate.Key)
	if _, err := os.Stat(cert); err != nil {
		return "", ""
	}
	if _, err := os.Stat(key); err != nil {
		return "", ""
	}
	return cert, key
}
