package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopops/payment-reaper/internal/clients"
	"github.com/shopops/payment-reaper/internal/config"
	"github.com/shopops/payment-reaper/internal/contact"
	"github.com/shopops/payment-reaper/internal/database"
	"github.com/shopops/payment-reaper/internal/escalation"
	"github.com/shopops/payment-reaper/internal/events"
	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/internal/notify"
	"github.com/shopops/payment-reaper/internal/reaper"
	"github.com/shopops/payment-reaper/internal/repository"
	"github.com/shopops/payment-reaper/internal/scheduler"
	"github.com/shopops/payment-reaper/pkg/kafka"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// Server wires the escalation engine together and exposes the ops endpoints:
// health, scheduler status and a manual cycle trigger. There is no
// user-facing surface; the storefront and admin UI live elsewhere.
type Server struct {
	config        *config.Config
	logger        logger.Logger
	router        *mux.Router
	httpServer    *http.Server
	db            *database.Database
	scheduler     *scheduler.Scheduler
	kafkaProducer *kafka.Producer
}

// NewServer builds the engine and its ops server from configuration
func NewServer(cfg *config.Config, logger logger.Logger) (*Server, error) {
	db, err := database.New(cfg, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db, logger)
	customerRepo := repository.NewCustomerRepository(db, logger)
	templateRepo := repository.NewTemplateRepository(db, logger)

	// Outbound gateways
	emailClient := clients.NewEmailClient(cfg.Gateway.EmailBaseURL, cfg.Gateway.APIKey, logger)
	smsClient := clients.NewSMSClient(cfg.Gateway.SMSBaseURL, cfg.Gateway.APIKey, logger)

	// Lifecycle event publishing is optional; without brokers the publisher
	// drops events
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, logger)

		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
	}
	publisher := events.NewPublisher(producer, cfg.Kafka.EventsTopic, logger)

	// Engine components
	resolver := contact.NewResolver(customerRepo, logger)
	dispatcher := notify.NewDispatcher(templateRepo, resolver, emailClient, smsClient, logger)
	orderReaper := reaper.NewReaper(orderRepo, dispatcher, publisher, logger)

	onlineMonitor := escalation.NewMonitor(
		escalation.OnlinePaymentPolicy(
			cfg.Reaper.Online.FirstReminder,
			cfg.Reaper.Online.FinalReminder,
			cfg.Reaper.Online.DeleteAfter,
		),
		orderRepo.FindIncompleteOnlineOrders,
		orderRepo,
		dispatcher,
		orderReaper,
		publisher,
		models.GetCurrentTime,
		logger,
	)

	graceMonitor := escalation.NewMonitor(
		escalation.GracePeriodPolicy(
			cfg.Reaper.Grace.FirstReminder,
			cfg.Reaper.Grace.SecondReminder,
			cfg.Reaper.Grace.FinalReminder,
			cfg.Reaper.Grace.DeleteAfter,
		),
		orderRepo.FindGracePeriodOrders,
		orderRepo,
		dispatcher,
		orderReaper,
		publisher,
		models.GetCurrentTime,
		logger,
	)

	sched := scheduler.NewScheduler(
		[]scheduler.Monitor{onlineMonitor, graceMonitor},
		cfg.Reaper.Interval,
		logger,
	)

	r := mux.NewRouter()

	server := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:            db,
		scheduler:     sched,
		kafkaProducer: producer,
	}

	server.setupRoutes()
	sched.Start()

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the scheduler and the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures the ops endpoints
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/reaper/status", s.statusHandler).Methods(http.MethodGet)
	api.HandleFunc("/reaper/run", s.runHandler).Methods(http.MethodPost)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.scheduler.Status())
}

// runHandler triggers one processing cycle outside the timer. The cycle runs
// in the background; overlap with a ticking cycle is resolved by the
// scheduler's guard.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	go s.scheduler.Trigger()

	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "cycle triggered"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// Middleware for logging requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
