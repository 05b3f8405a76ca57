package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoShare/internal/auth"
	"photoShare/internal/blob"
	"photoShare/internal/config"
	"photoShare/internal/db"
	"photoShare/internal/feed"
	grpcserver "photoShare/internal/grpc"
	"photoShare/internal/httpapi"
	"photoShare/internal/logging"
	"photoShare/internal/seed"
	"photoShare/repository"
)

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		logging.New("info").Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Log.Level)
	log.Infof("Configuration loaded: %v", cfg)

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Error("close db")
		}
	}()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordScheme)
	if err != nil {
		log.Fatalf("password scheme: %v", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	users := repository.NewUserRepository(d)
	posts := repository.NewPostRepository(d)

	if cfg.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := seed.Run(ctx, users, posts, hasher, log)
		cancel()
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	blobs, err := blob.NewLocalStore(cfg.Storage.StaticDir, cfg.Storage.StaticURLPrefix)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	gate := auth.NewGate(tokens, users, hasher)
	svc := feed.NewService(posts, blobs, log)

	api := httpapi.NewServer(gate, svc, log, httpapi.Options{
		AllowedOrigin:   cfg.HTTP.AllowedOrigin,
		StaticDir:       blobs.Dir(),
		StaticURLPrefix: cfg.Storage.StaticURLPrefix,
	})
	httpSrv := httpapi.NewHTTPServer(cfg.HTTP.Address, api.Routes())
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()
	log.Infof("HTTP server listening on %s", cfg.HTTP.Address)

	stopGRPC, err := grpcserver.StartGRPC(cfg.GRPC.Address, gate, svc, log)
	if err != nil {
		log.Fatalf("start grpc: %v", err)
	}
	log.Infof("gRPC server listening on %s", cfg.GRPC.Address)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := stopGRPC(ctx); err != nil {
		log.WithError(err).Error("grpc shutdown")
	}
}
