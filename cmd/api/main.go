package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"squadhub.org/internal/achievement"
	"squadhub.org/internal/chat"
	"squadhub.org/internal/config"
	"squadhub.org/internal/event"
	"squadhub.org/internal/httpapi"
	"squadhub.org/internal/identity"
	"squadhub.org/internal/mail"
	"squadhub.org/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.DatabaseDSN == "" {
		log.Fatal("missing SQUADHUB_PG_DSN")
	}
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	var mailer identity.Dispatcher
	if cfg.SMTPAddr != "" {
		mailer, err = mail.NewSMTPDispatcher(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
		if err != nil {
			log.Fatalf("smtp dispatcher: %v", err)
		}
	} else {
		obs.Info("no SMTP address configured, logging outbound mail", nil)
		mailer = mail.LogDispatcher{}
	}

	issuer, err := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	accounts := identity.NewPGStore(db)
	idsvc, err := identity.NewService(accounts, mailer, issuer,
		identity.WithBaseURL(cfg.BaseURL))
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}

	api := httpapi.New(
		httpapi.ReadyProbe{DB: db},
		idsvc,
		accounts,
		issuer,
		chat.NewService(chat.NewPGStore(db), accounts),
		event.NewService(event.NewPGStore(db)),
		achievement.NewService(achievement.NewPGStore(db), accounts),
		httpapi.Options{
			Version:      version,
			MaxBodyBytes: cfg.MaxBodyBytes,
			RateBurst:    cfg.RateBurst,
			RatePerSec:   cfg.RatePerSec,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting squadhub-api %s on %s (env=%s)", version, srv.Addr, cfg.Env)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
