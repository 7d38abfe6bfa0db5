package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	accesscontrolfacade "github.com/tenantgate/tenantgate/internal/accesscontrol/facade"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/iam"
	acpostgres "github.com/tenantgate/tenantgate/internal/accesscontrol/repository/postgres"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/decision"
	acservice "github.com/tenantgate/tenantgate/internal/accesscontrol/service"

	"github.com/tenantgate/tenantgate/internal/dataapi/acl"
	dapostgres "github.com/tenantgate/tenantgate/internal/dataapi/repository/postgres"
	daservice "github.com/tenantgate/tenantgate/internal/dataapi/service"
	datransport "github.com/tenantgate/tenantgate/internal/dataapi/transport/http"

	"github.com/tenantgate/tenantgate/pkg/config"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/httputil"
	"github.com/tenantgate/tenantgate/pkg/logger"
	"github.com/tenantgate/tenantgate/pkg/messaging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("tenantgate", cfg.Server.Environment)
	log.Info().Msg("starting TenantGate")

	adminDB, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to admin database")
	}
	defer adminDB.Close()

	var publisher *messaging.Publisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, audit fan-out disabled")
	} else {
		defer rmq.Close()
		publisher, err = messaging.NewPublisher(rmq, messaging.ExchangeAuditEvents, "tenantgate", log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create audit event publisher, fan-out disabled")
			publisher = nil
		}
	}

	verifier, err := iam.NewGRPCVerifier(&cfg.IAM, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial identity service")
	}
	defer verifier.Close()

	// access_control bounded context (C1-C9).
	ownershipStore := acpostgres.NewOwnershipStore(adminDB)
	policyStore := acpostgres.NewPolicyStore(adminDB)
	decisionCache := decision.NewCache(cfg.Access.DecisionCacheTTL)
	acAuditSink := acpostgres.NewAuditSink(adminDB, publisher, log)

	coordinator := acservice.NewCoordinator(verifier, ownershipStore, policyStore, decisionCache, acAuditSink, log)
	var facadeImpl accesscontrolfacade.Facade = coordinator

	// data_api bounded context (C3-C5, C10-C11), reaching access_control only
	// through the facade adapter.
	tenantCatalog := dapostgres.NewTenantCatalog(adminDB)
	poolCache := dapostgres.NewPoolCache(log)
	metadataStore := dapostgres.NewMetadataStore()
	executor := dapostgres.NewExecutor()
	daAuditSink := dapostgres.NewAuditSink(adminDB, publisher, log)
	aclAdapter := acl.NewAdapter(facadeImpl)

	dataAPIService := daservice.New(tenantCatalog, poolCache, metadataStore, executor, daAuditSink, aclAdapter, log)
	dataAPIHandler := datransport.NewHandler(dataAPIService, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "x-tenant-id", "x-tenant-schema", "x-request-id", "x-subject-owner-id", "x-row-owner-id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]any{
			"status":   "healthy",
			"service":  "tenantgate",
			"database": adminDB.Health(r.Context()),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		dataAPIHandler.Routes(r)
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
