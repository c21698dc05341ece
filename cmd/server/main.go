package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	grouphandler "beredskap/internal/group/handler"
	groupmetrics "beredskap/internal/group/metrics"
	groupservice "beredskap/internal/group/service"
	groupstore "beredskap/internal/group/store"
	contributionstore "beredskap/internal/group/store/contribution"
	gstore "beredskap/internal/group/store/group"
	invitationstore "beredskap/internal/group/store/invitation"
	membershipstore "beredskap/internal/group/store/membership"

	"beredskap/internal/directory"
	"beredskap/internal/identity"
	"beredskap/internal/inventory"
	"beredskap/internal/notify"
	"beredskap/internal/platform/config"
	"beredskap/internal/platform/httpserver"
	"beredskap/internal/platform/logger"
	platformmetrics "beredskap/internal/platform/metrics"
	platformredis "beredskap/internal/platform/redis"
	httptransport "beredskap/internal/transport/http"
	auditpublisher "beredskap/pkg/platform/audit/publisher"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := groupstore.Migrate(ctx, db); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var notifier notify.Notifier = notify.Noop{}
	if redisClient != nil {
		notifier = notify.NewRedisPublisher(redisClient)
	}

	serviceOpts := []groupservice.Option{
		groupservice.WithLogger(log),
		groupservice.WithNotifier(notifier),
		groupservice.WithMetrics(groupmetrics.New()),
		groupservice.WithStoreTx(newGroupPostgresTx(db)),
		groupservice.WithInviteTTL(cfg.InviteTTL),
		groupservice.WithPageSize(cfg.PageSize),
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := auditpublisher.NewKafka(cfg.KafkaBrokers, auditpublisher.WithTopic(cfg.AuditTopic))
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		serviceOpts = append(serviceOpts, groupservice.WithAuditPublisher(kafka))
	}

	service := groupservice.New(
		gstore.NewPostgres(db),
		membershipstore.NewPostgres(db),
		invitationstore.NewPostgres(db),
		contributionstore.NewPostgres(db),
		directory.NewPostgres(db),
		inventory.NewPostgres(db),
		serviceOpts...,
	)

	handler := grouphandler.New(
		service,
		log,
		platformmetrics.New(),
		identity.NewJWTValidator(cfg.JWTSigningKey),
	)

	router := httptransport.NewRouter(redisClient, handler)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting beredskap", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
