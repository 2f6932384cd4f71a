// Package api serves the sequencing engine over HTTP: clients post
// component manifests, the server builds and schedules them, and the
// resulting graphs are queryable over REST and GraphQL.
package api

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/kestrelworks/bootseq/pkg/announce"
	"github.com/kestrelworks/bootseq/pkg/auth"
	"github.com/kestrelworks/bootseq/pkg/export"
	"github.com/kestrelworks/bootseq/pkg/graphql"
	"github.com/kestrelworks/bootseq/pkg/journal"
	"github.com/kestrelworks/bootseq/pkg/logging"
	"github.com/kestrelworks/bootseq/pkg/metrics"
	"github.com/kestrelworks/bootseq/pkg/postgres"
)

const (
	defaultTokenTTL   = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	adminUsername = "admin"
)

// Config wires the server's collaborators. Store, Journal, Exporter and
// Publisher are optional; a nil value disables that concern.
type Config struct {
	// JWTSecret signs access tokens. Must be at least 32 characters.
	JWTSecret string
	// AdminPassword seeds the initial admin user. Falls back to the
	// BOOTSEQ_ADMIN_PASSWORD environment variable.
	AdminPassword string
	TokenTTL      time.Duration
	RefreshTTL    time.Duration

	Store     *postgres.Store
	Journal   *journal.Journal
	Exporter  export.Exporter
	Publisher announce.Publisher

	Metrics *metrics.Registry
	Logger  logging.Logger
}

// Server is the HTTP service.
type Server struct {
	app      *fiber.App
	registry *Registry
	jwt      *auth.JWTManager
	users    *auth.UserStore

	store     *postgres.Store
	journal   *journal.Journal
	exporter  export.Exporter
	publisher announce.Publisher

	metrics   *metrics.Registry
	log       logging.Logger
	startTime time.Time
}

// NewServer builds the service and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	tokenTTL := cfg.TokenTTL
	if tokenTTL == 0 {
		tokenTTL = defaultTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = defaultRefreshTTL
	}

	jwtMgr, err := auth.NewJWTManager(cfg.JWTSecret, tokenTTL, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("api: jwt manager: %w", err)
	}

	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		adminPassword = os.Getenv("BOOTSEQ_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		return nil, fmt.Errorf("api: admin password not configured")
	}

	users := auth.NewUserStore()
	if _, err := users.CreateUser(adminUsername, adminPassword, auth.RoleAdmin); err != nil {
		return nil, fmt.Errorf("api: seed admin user: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	pub := cfg.Publisher
	if pub == nil {
		pub = announce.NopPublisher{}
	}

	s := &Server{
		app:       fiber.New(fiber.Config{AppName: "bootseq"}),
		registry:  NewRegistry(),
		jwt:       jwtMgr,
		users:     users,
		store:     cfg.Store,
		journal:   cfg.Journal,
		exporter:  cfg.Exporter,
		publisher: pub,
		metrics:   reg,
		log:       log,
		startTime: time.Now(),
	}

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	s.app.Use(s.requestMetrics())

	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	schema, err := graphql.NewSchema(s.registry)
	if err != nil {
		return fmt.Errorf("api: graphql schema: %w", err)
	}
	s.app.Post("/graphql", s.requireRole(auth.RoleViewer),
		adaptor.HTTPHandler(graphql.NewHandler(schema)))

	v1 := s.app.Group("/api/v1")
	v1.Post("/login", s.handleLogin)
	v1.Post("/refresh", s.handleRefresh)

	v1.Post("/graphs", s.requireRole(auth.RoleEditor), s.handleBuildGraph)
	v1.Get("/graphs", s.requireRole(auth.RoleViewer), s.handleListGraphs)
	v1.Get("/graphs/:id", s.requireRole(auth.RoleViewer), s.handleGetGraph)
	v1.Get("/graphs/:id/order", s.requireRole(auth.RoleViewer), s.handleGetOrder)
	v1.Get("/graphs/:id/plan", s.requireRole(auth.RoleViewer), s.handleGetPlan)
	v1.Get("/graphs/:id/rejected", s.requireRole(auth.RoleViewer), s.handleGetRejected)
	v1.Get("/graphs/:id/render", s.requireRole(auth.RoleViewer), s.handleRender)
	v1.Delete("/graphs/:id", s.requireRole(auth.RoleAdmin), s.handleDeleteGraph)
	return nil
}

// App exposes the underlying fiber app for tests and custom mounting.
func (s *Server) App() *fiber.App {
	return s.app
}

// Registry exposes the graph registry (the GraphQL source).
func (s *Server) Registry() *Registry {
	return s.registry
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.log.Info("server listening", logging.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and closes the app.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	s.metrics.UpdateSystemMetrics(s.startTime)
	return c.JSON(fiber.Map{
		"status":  "ok",
		"graphs":  s.registry.Len(),
		"uptime":  time.Since(s.startTime).String(),
		"version": "1",
	})
}
