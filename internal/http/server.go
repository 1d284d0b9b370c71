// Package http serves the entry, report and insights pages, the HTMX
// partials behind them and the chart JSON.
package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// requestTimeout covers two provider calls at their 25s client timeout.
const requestTimeout = 60 * time.Second

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// Options tunes the server; zero values take defaults.
type Options struct {
	RateLimit ratelimit.Config
	// TrustedProxies are CIDRs whose X-Forwarded-For is honoured, in addition
	// to loopback and the private ranges.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	entry     *services.EntryService
	dashboard *services.DashboardService
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	startedAt    time.Time
	recorded     int64
	rejected     int64
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, entry *services.EntryService, dashboard *services.DashboardService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      requestTimeout + 10*time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		entry:            entry,
		dashboard:        dashboard,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: security.NewDetector(),
		startedAt:        time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			s.rateLimiter.Stop()
			return nil, err
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	t, err := parseTemplates()
	if err != nil {
		s.rateLimiter.Stop()
		return nil, err
	}
	s.templates = t

	s.Handler = s.routes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount":     func(a core.Amount, v core.View) string { return a.Format(v) },
		"eur":        core.FormatEUR,
		"bdtPrecise": core.FormatBDTPrecise,
		"rate":       core.FormatRate,
		"monthLabel": report.MonthLabel,
		"money": func(v float64, c report.Currency) string {
			if c == report.BDT {
				return core.FormatBDT(v)
			}
			return core.FormatEUR(v)
		},
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware.Middleware)
	r.Use(s.securityDetector.Middleware(s.logger.WithComponent(log.ComponentSecurity)))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/ui/quote", s.handleQuote)
		r.Post("/transactions", s.handleCreateTransaction)

		r.Get("/report", s.handleReport)
		r.Get("/report/export.csv", s.handleExportCSV)

		r.Get("/insights", s.handleInsights)
		r.Post("/categories", s.handleCreateCategory)
		r.Get("/api/charts", s.handleCharts)
	})

	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please wait a minute and try again.").Write(w)
}

// render executes a template into a buffer so a failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(buf.Bytes()).Write(w)
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) countRecorded() { atomic.AddInt64(&s.recorded, 1) }
func (s *Server) countRejected() { atomic.AddInt64(&s.rejected, 1) }
