package internal

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tool-rack-lookup/internal/config"
	"tool-rack-lookup/internal/handlers"
	"tool-rack-lookup/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

//go:embed templates static
var webFS embed.FS

var pageNames = []string{"home.html", "listings.html", "tools.html", "tool.html"}

type Server struct {
	Store   store.Store
	Router  *chi.Mux
	Metrics *Metrics
	Log     *zap.Logger
	Images  ImagePolicy

	pages   map[string]*template.Template
	closers []func()
}

// NewServer connects to Postgres (and Redis when caching is enabled) and
// builds the router.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	closers := []func(){pool.Close}

	var st store.Store = store.NewPostgres(pool, cfg.QueryTimeout)

	if cfg.CacheEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			runClosers(closers)
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddress, err)
		}
		closers = append(closers, func() { client.Close() })
		st = store.NewCached(st, store.NewRedisCache(client), cfg.CacheTTL, log)
		log.Info("redis read cache enabled", zap.String("address", cfg.RedisAddress), zap.Duration("ttl", cfg.CacheTTL))
	}

	metrics := NewMetrics()
	s, err := New(metrics.InstrumentStore(st), cfg, log, metrics)
	if err != nil {
		runClosers(closers)
		return nil, err
	}
	s.closers = closers
	return s, nil
}

// New builds a Server around an existing Store.
func New(st store.Store, cfg *config.Config, log *zap.Logger, metrics *Metrics) (*Server, error) {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		Store:   st,
		Router:  chi.NewRouter(),
		Metrics: metrics,
		Log:     log,
		Images:  NewImagePolicy(cfg.ImageHosts),
	}

	pages, err := s.parsePages()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	s.Router.Use(middleware.RealIP)
	s.Router.Use(requestID)
	s.Router.Use(requestLogger(log))
	s.Router.Use(middleware.Recoverer)
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
	}
	if cfg.RateLimitRPS > 0 {
		s.Router.Use(newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", s.dbPing)
	if cfg.EnableMetrics {
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	static, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, err
	}
	s.Router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.mountPages(s.Router)
	s.Router.Route("/api", s.mountAPI)

	return s, nil
}

func (s *Server) mountPages(r chi.Router) {
	r.Get("/", s.home)
	r.Get("/listings", s.listings)
	r.Get("/tools/{customerID}", s.customerTools)
	r.Get("/tools/{customerID}/export.xlsx", handlers.NewExportHandler(s.Store, s.Log).ServeHTTP)
	r.Get("/tool/{toolID}", s.tool)
}

func (s *Server) mountAPI(r chi.Router) {
	r.Get("/customers", s.apiCustomers)
	r.Get("/customers/{customerID}/tools", s.apiCustomerTools)
	r.Get("/tools/{toolID}", s.apiTool)
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		loggerFrom(r.Context(), s.Log).Error("database ping failed", zap.Error(err))
		http.Error(w, "db: unavailable", http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"allowedImage": s.Images.Allowed,
		"date":         formatDate,
		"initials":     initials,
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout").Funcs(funcs).ParseFS(webFS,
			"templates/layout.html", "templates/rack.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Close releases the database pool and cache client.
func (s *Server) Close() {
	runClosers(s.closers)
	s.closers = nil
}

// runClosers calls closers in reverse order of acquisition.
func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func initials(name string) string {
	var letters []rune
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		letters = append(letters, unicode.ToUpper(r))
		if len(letters) == 2 {
			break
		}
	}
	return string(letters)
}
