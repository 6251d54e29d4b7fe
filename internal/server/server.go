// Package server exposes the extraction engine over HTTP: a buffered
// request/response shape, a streaming NDJSON shape, and a last-result query.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/halkwu/opal-card/internal/domain"
	"github.com/halkwu/opal-card/internal/export"
	"github.com/halkwu/opal-card/internal/portal"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// RunFunc executes one extraction run. Production wiring binds export.Run to
// a scraper; tests substitute stubs.
type RunFunc func(ctx context.Context, opts export.Options, onProgress portal.ProgressFunc) ([]domain.LedgerEntry, error)

type Server struct {
	run   RunFunc
	store *ResultStore
	addr  string
}

func New(run RunFunc, addr string) *Server {
	return &Server{
		run:   run,
		store: NewResultStore(),
		addr:  addr,
	}
}

// Handler returns the routed HTTP handler, exported for tests.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transactions", s.handleTransactions)
	mux.HandleFunc("POST /api/transactions/stream", s.handleTransactionsStream)
	mux.HandleFunc("GET /api/transactions/last", s.handleLastResult)

	return s.withRunContext(ctx, mux)
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		zerolog.Ctx(ctx).Info().Str("server.addr", s.addr).Msg("listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// withRunContext stamps each request with a run ID and a request-scoped
// logger derived from the server's base context.
func (s *Server) withRunContext(baseCtx context.Context, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := uuid.NewString()

		logger := zerolog.Ctx(baseCtx).With().
			Str("run.id", runID).
			Str("http.path", r.URL.Path).
			Logger()

		ctx := logger.WithContext(r.Context())
		ctx = context.WithValue(ctx, runIDKey{}, runID)

		logger.Debug().Str("http.method", r.Method).Msg("handling request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type runIDKey struct{}

func runIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)

	return id
}
