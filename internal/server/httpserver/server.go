// Package httpserver wires routes, middleware, and listeners for the
// site server.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/remixweb/site/internal/auth"
	"github.com/remixweb/site/internal/checkout"
	"github.com/remixweb/site/internal/config"
	"github.com/remixweb/site/internal/docs"
	"github.com/remixweb/site/internal/jam"
	"github.com/remixweb/site/internal/license"
	"github.com/remixweb/site/internal/metrics"
	"github.com/remixweb/site/internal/newsletter"
	"github.com/remixweb/site/internal/server/handlers"
	smw "github.com/remixweb/site/internal/server/middleware"
)

// Deps carries every constructed dependency into the server. Optional
// integrations may be nil; their routes respond 404.
type Deps struct {
	Docs       *docs.Service
	Jam        *jam.Service
	Tickets    *jam.TicketClient
	Licenses   *license.Service
	Billing    *checkout.BillingClient
	Fulfiller  *checkout.Fulfiller
	Newsletter *newsletter.Client
	Sessions   *auth.Sessions
	Recorder   metrics.Recorder
	Metrics    http.Handler
}

// Server runs the main HTTP listener and a separate metrics listener.
type Server struct {
	cfg        *config.Config
	mainServer *http.Server
	opsServer  *http.Server
}

// New builds the route table and both servers.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}

	mux := http.NewServeMux()

	monitoring := handlers.NewMonitoringHandlers()
	mux.HandleFunc("GET /healthz", monitoring.Health)

	docsHandlers := handlers.NewDocsHandlers(deps.Docs)
	mux.HandleFunc("GET /api/docs/versions", docsHandlers.Versions)
	mux.HandleFunc("GET /api/docs/{version}/menu", docsHandlers.Menu)
	mux.HandleFunc("GET /api/docs/{version}/{slug...}", docsHandlers.Page)

	jamHandlers := handlers.NewJamHandlers(deps.Jam, deps.Tickets)
	mux.HandleFunc("GET /jam/2025", jamHandlers.Lineup)
	mux.HandleFunc("GET /jam/2025/lineup", jamHandlers.Lineup)
	mux.HandleFunc("POST /jam/2025/ticket", jamHandlers.BuyTicket)

	if deps.Newsletter != nil {
		newsletterHandlers := handlers.NewNewsletterHandlers(deps.Newsletter, deps.Recorder)
		mux.HandleFunc("POST /_actions/newsletter", newsletterHandlers.Subscribe)
	}

	if deps.Sessions != nil {
		dashboard := handlers.NewDashboardHandlers(deps.Sessions, deps.Licenses)
		mux.HandleFunc("POST /api/createUserSession", dashboard.CreateUserSession)
		mux.Handle("GET /api/dashboard/licenses",
			smw.RequireSession(deps.Sessions, http.HandlerFunc(dashboard.Licenses)))
		mux.Handle("POST /api/dashboard/licenses/{token}/members",
			smw.RequireSession(deps.Sessions, http.HandlerFunc(dashboard.AcceptInvitation)))

		if deps.Billing != nil {
			checkoutHandlers := handlers.NewCheckoutHandlers(deps.Billing, deps.Fulfiller, handlers.CheckoutOptions{
				WebhookSecret: cfg.Billing.WebhookSecret,
				PriceID:       cfg.Billing.PriceID,
				SuccessURL:    cfg.Billing.SuccessURL,
				CancelURL:     cfg.Billing.CancelURL,
			})
			mux.Handle("POST /api/createCheckout",
				smw.RequireSession(deps.Sessions, http.HandlerFunc(checkoutHandlers.CreateCheckout)))
			mux.HandleFunc("POST /webhooks/billing", checkoutHandlers.Webhook)
		}
	}

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}
	chain := smw.Chain(slog.Default(), deps.Recorder)
	handler := chain(cors.New(corsOptions).Handler(mux))

	opsMux := http.NewServeMux()
	opsMux.HandleFunc("GET /healthz", monitoring.Health)
	if deps.Metrics != nil {
		opsMux.Handle("GET /metrics", deps.Metrics)
	}

	return &Server{
		cfg: cfg,
		mainServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		opsServer: &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           opsMux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the main handler for tests.
func (s *Server) Handler() http.Handler {
	return s.mainServer.Handler
}

// Start runs both listeners until ctx is cancelled, then shuts them
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		slog.Info("HTTP server listening", "addr", s.mainServer.Addr)
		if err := s.mainServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("main server failed: %w", err)
		}
	}()
	go func() {
		slog.Info("Metrics server listening", "addr", s.opsServer.Addr)
		if err := s.opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failed: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var shutdownErr error
	if err := s.mainServer.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("main server shutdown: %w", err)
	}
	if err := s.opsServer.Shutdown(shutdownCtx); err != nil && shutdownErr == nil {
		shutdownErr = fmt.Errorf("metrics server shutdown: %w", err)
	}
	return shutdownErr
}
