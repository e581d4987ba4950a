package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/webtools/internal/assets"
	"github.com/wolfeidau/webtools/internal/buildconfig"
	httpmiddleware "github.com/wolfeidau/webtools/internal/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 5 * time.Second

// Assets is the part of the asset pipeline the server reads from.
type Assets interface {
	Handler(id string) http.HandlerFunc
	Lookup(name string) (assets.Asset, bool)
	OutputDir() string
}

// Server serves the built pages and assets during development.
type Server struct {
	cfg         buildconfig.Config
	assets      Assets
	logger      zerolog.Logger
	corsOrigins []string
	tracing     bool
	listenTries uint
}

type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCORS allows cross origin requests from the given origins.
func WithCORS(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithTracing wraps the handler with OpenTelemetry instrumentation.
func WithTracing(enabled bool) Option {
	return func(s *Server) {
		s.tracing = enabled
	}
}

// WithListenRetries sets how many times binding the listen address is tried.
func WithListenRetries(tries uint) Option {
	return func(s *Server) {
		s.listenTries = tries
	}
}

// New creates a dev server for cfg serving output from a.
func New(cfg buildconfig.Config, a Assets, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		assets:      a,
		logger:      zerolog.Nop(),
		listenTries: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.DevServer.Host, strconv.Itoa(s.cfg.DevServer.Port))
}

// Handler returns the complete handler chain. The configured dev server
// headers are set before routing so every response carries them.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()

	handler = gzhttp.GzipHandler(handler)

	if len(s.corsOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			ExposedHeaders: []string{"ETag", httpmiddleware.RequestIDHeader},
		}).Handler(handler)
	}

	handler = httpmiddleware.HeadersMiddleware(s.cfg.DevServer.Headers)(handler)

	if s.tracing {
		handler = otelhttp.NewHandler(handler, "webtools-devserver")
	}

	return httpmiddleware.RequestLogger(s.logger)(handler)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	prefix := routePrefix(s.cfg.PublicPath)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	for _, id := range s.cfg.PageIDs() {
		page := s.cfg.Pages[id]
		handler := s.assets.Handler(id)

		mux.Handle("GET "+prefix+page.OutputFilename(id), handler)
		if id == buildconfig.IndexPage {
			mux.Handle("GET "+prefix+"{$}", handler)
			// the site root always opens the index page
			if prefix != "/" {
				mux.Handle("GET /{$}", handler)
			}
		}
	}

	static := http.StripPrefix(strings.TrimSuffix(prefix, "/"), newStaticHandler(s.assets))
	mux.Handle("GET "+prefix, static)

	return mux
}

// routePrefix returns the path the dev server mounts assets under. Relative
// public paths and absolute URLs are served from the root.
func routePrefix(publicPath string) string {
	if !strings.HasPrefix(publicPath, "/") {
		return "/"
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Addr()

	ln, err := backoff.Retry(ctx, func() (net.Listener, error) {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.logger.Warn().Err(err).Str("addr", addr).Msg("Failed to listen, retrying")
		}
		return ln, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(s.listenTries))
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := configureHTTPServer(ln.Addr().String(), s.Handler())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Str("public_path", s.cfg.PublicPath).Msg("Dev server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown dev server: %w", err)
	}
	s.logger.Info().Msg("Dev server stopped")
	return nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
