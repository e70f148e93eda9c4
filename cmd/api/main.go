package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"motordesk.io/internal/admin"
	"motordesk.io/internal/config"
	"motordesk.io/internal/httpapi"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/obs"
	"motordesk.io/internal/ratelimit"
	"motordesk.io/internal/session"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()
	if cfg.AuthSecret == "" {
		log.Fatal("MOTORDESK_AUTH_SECRET is required")
	}

	// Postgres when a DSN is set, in-memory store for local development.
	var (
		db    *sql.DB
		store identity.Store
	)
	if cfg.PGDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = identity.NewPGStore(db)
	} else {
		log.Println("MOTORDESK_PG_DSN is empty, using in-memory store")
		store = identity.NewInMemory()
	}

	sessions, err := session.NewService(store, cfg.AuthSecret,
		session.WithActorTTL(cfg.ActorSessionTTL),
		session.WithAdminTTL(cfg.AdminSessionTTL),
	)
	if err != nil {
		log.Fatalf("session service: %v", err)
	}

	loginLedger := ratelimit.NewLedger(cfg.LoginMaxAttempts, cfg.LoginWindow)
	setupLedger := ratelimit.NewLedger(cfg.SetupMaxAttempts, cfg.SetupWindow)

	adminSvc, err := admin.NewService(admin.Config{
		Store:       store,
		Sessions:    sessions,
		LoginLedger: loginLedger,
		SetupLedger: setupLedger,
		SetupToken:  cfg.SetupToken,
	})
	if err != nil {
		log.Fatalf("admin service: %v", err)
	}

	probe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(probe, version, httpapi.Deps{
		Store:       store,
		Sessions:    sessions,
		Admin:       adminSvc,
		LoginLedger: loginLedger,
		RateBurst:   cfg.RateBurst,
		RatePerSec:  cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting motordesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// health probe for load balancers that speak gRPC
	healthSrv := httpapi.NewHealthGRPC(probe)
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		if err := healthSrv.Serve(lis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthSrv.Stop()
	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
