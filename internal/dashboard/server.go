// Package dashboard serves a computed result over HTTP: the interactive map,
// export downloads and the raw records as JSON.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/competitor-map/internal/pipeline"
	"github.com/sells-group/competitor-map/internal/render"
)

const shutdownTimeout = 10 * time.Second

// Options configures the dashboard server.
type Options struct {
	Port           int
	AllowedOrigins []string
	CacheEntries   int
	CacheTTL       time.Duration
	Style          render.Style
}

// Server serves one pipeline result.
type Server struct {
	res    *pipeline.Result
	opts   Options
	cache  *ArtifactCache
	router chi.Router
}

// NewServer builds the router for res.
func NewServer(res *pipeline.Result, opts Options) (*Server, error) {
	if res == nil {
		return nil, eris.New("dashboard: nil result")
	}
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = 16
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		res:   res,
		opts:  opts,
		cache: NewArtifactCache(opts.CacheEntries, opts.CacheTTL),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Cache returns the artifact cache.
func (s *Server) Cache() *ArtifactCache { return s.cache }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Cache", "X-Run-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleArtifact(render.FormatHTML, false))
	r.Get("/map.geojson", s.handleArtifact(render.FormatGeoJSON, false))
	r.Get("/export.xlsx", s.handleArtifact(render.FormatXLSX, true))
	r.Get("/summary.yaml", s.handleArtifact(render.FormatYAML, false))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stores", s.handleJSON(func() any { return s.res.Stores }))
		r.Get("/competitors", s.handleJSON(func() any { return s.res.Competitors }))
		r.Get("/rejections", s.handleJSON(func() any {
			if s.res.Rejections == nil {
				return []pipeline.Rejection{}
			}
			return s.res.Rejections
		}))
	})
	r.Get("/cache/stats", s.handleJSON(func() any { return s.cache.Stats() }))
	r.Delete("/cache", s.handleInvalidate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"run_id":      s.res.RunID,
		"frame":       s.res.Frame.String(),
		"stores":      len(s.res.Stores),
		"competitors": len(s.res.Competitors),
	})
}

// handleArtifact serves a rendered artifact from the cache, rendering it on
// a miss.
func (s *Server) handleArtifact(format string, attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd, err := render.ForFormat(format, s.opts.Style)
		if err != nil {
			http.Error(w, "unknown format", http.StatusNotFound)
			return
		}

		cacheStatus := "hit"
		data := s.cache.Get(s.res.RunID, format)
		if data == nil {
			cacheStatus = "miss"
			data, err = render.ToBytes(r.Context(), rd, s.res)
			if err != nil {
				zap.L().Error("dashboard: render failed",
					zap.String("format", format),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Error(err),
				)
				http.Error(w, "render failed", http.StatusInternalServerError)
				return
			}
			s.cache.Put(s.res.RunID, format, data)
		}

		w.Header().Set("Content-Type", rd.ContentType())
		w.Header().Set("X-Cache", cacheStatus)
		w.Header().Set("X-Run-Id", s.res.RunID)
		if attachment {
			w.Header().Set("Content-Disposition",
				fmt.Sprintf(`attachment; filename="competitor-map%s"`, rd.Extension()))
		}
		_, _ = w.Write(data)
	}
}

// handleInvalidate drops the cached artifacts so the next request renders
// them again.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate(s.res.RunID)
	zap.L().Info("dashboard: cache invalidated",
		zap.String("run_id", s.res.RunID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJSON(body func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Run-Id", s.res.RunID)
		writeJSON(w, http.StatusOK, body())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("dashboard: encode response", zap.Error(err))
	}
}

// ListenAndServe listens on the configured port and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return eris.Wrap(err, "dashboard: listen")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("dashboard: listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("run_id", s.res.RunID),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "dashboard: serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("dashboard: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "dashboard: shutdown")
		}
		return nil
	})
	return g.Wait()
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("dashboard: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
