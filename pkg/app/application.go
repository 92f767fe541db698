package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	authmiddleware "autolibrarian/internal/auth/middleware"
	"autolibrarian/pkg/config"
	"autolibrarian/pkg/contracts"
	"autolibrarian/pkg/middleware"
)

// Application owns the router, the middleware chain and the server
// lifecycle. Handlers register themselves against the router through the
// session guard.
type Application struct {
	cfg       *config.Config
	router    *httprouter.Router
	guard     *authmiddleware.Guard
	limiter   *middleware.IdentityRateLimiter
	idemStore *middleware.InMemoryIdempotencyStore
	closers   []func() error
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{
		cfg:    cfg,
		router: httprouter.New(),
		guard:  authmiddleware.NewGuard(cfg.JWTSecret, cfg.Log),
		limiter: middleware.NewIdentityRateLimiter(
			cfg.RateLimitRequests,
			cfg.RateLimitWindow,
			middleware.SessionCookieExtractor(authmiddleware.CookieName),
			cfg.Log,
		),
		idemStore: middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL),
	}
}

func (a *Application) Guard() *authmiddleware.Guard {
	return a.guard
}

func (a *Application) RegisterHandlers(handlers ...contracts.Handler) {
	for _, h := range handlers {
		h.RegisterRoutes(a.router, a.guard)
	}
}

// OnShutdown registers a cleanup to run after the HTTP server has drained.
func (a *Application) OnShutdown(fn func() error) {
	a.closers = append(a.closers, fn)
}

// chain applies the shared middleware stack. Recovery is outermost so a
// panic in any later stage still produces a response; the timeout sits
// inside the rate limiter so rejected requests are not charged a timer.
// Health probes bypass everything but recovery and logging so a saturated
// limiter or a slow store never fails a liveness check.
func (a *Application) chain() http.Handler {
	var handler http.Handler = a.router

	handler = middleware.Idempotency(a.idemStore, "Idempotency-Key")(handler)
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.IdentityRateLimit(a.limiter)(handler)
	handler = middleware.ContentTypeValidation(a.cfg.Log)(handler)
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)

	var health http.Handler = a.router
	health = middleware.RequestLogging(a.cfg.Log)(health)
	health = middleware.Recovery(a.cfg.Log)(health)

	appChain := handler
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/ready" {
			health.ServeHTTP(w, r)
			return
		}
		appChain.ServeHTTP(w, r)
	})
}

func (a *Application) Run() {
	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.chain(),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("Server failed", "error", err)
		}
	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			a.cfg.Log.Error("Graceful shutdown failed, forcing close", "error", err)
			if err := server.Close(); err != nil {
				a.cfg.Log.Error("Forced close failed", "error", err)
			}
		}
	}

	a.limiter.Stop()
	a.idemStore.Stop()
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.cfg.Log.Error("Shutdown cleanup failed", "error", err)
		}
	}
	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped")
}
