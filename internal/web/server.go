package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/vbonduro/foodgram/internal/mediastore"
	"github.com/vbonduro/foodgram/internal/metrics"
	"github.com/vbonduro/foodgram/internal/service"
)

// Options tunes the HTTP layer.
type Options struct {
	PageSize          int
	MediaURL          string
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 6
	}
	if o.MediaURL == "" {
		o.MediaURL = "/media/"
	}
	if o.RateLimitRequests <= 0 {
		o.RateLimitRequests = 20
	}
	if o.RateLimitWindow <= 0 {
		o.RateLimitWindow = time.Minute
	}
	return o
}

type Server struct {
	users   *service.UserService
	recipes *service.RecipeService
	catalog *service.CatalogService
	media   mediastore.MediaStore
	opts    Options
	router  chi.Router
	logger  *slog.Logger
}

func NewServer(
	users *service.UserService,
	recipes *service.RecipeService,
	catalog *service.CatalogService,
	media mediastore.MediaStore,
	opts Options,
	logger *slog.Logger,
) *Server {
	s := &Server{
		users:   users,
		recipes: recipes,
		catalog: catalog,
		media:   media,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get(s.opts.MediaURL+"*", s.handleGetMedia)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		limited := httprate.LimitByIP(s.opts.RateLimitRequests, s.opts.RateLimitWindow)

		r.Route("/auth/token", func(r chi.Router) {
			r.With(limited).Post("/login", s.handleLogin)
			r.With(requireUser).Post("/logout", s.handleLogout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.With(limited).Post("/", s.handleRegister)
			r.With(requireUser).Get("/me", s.handleMe)
			r.With(requireUser).Post("/set_password", s.handleSetPassword)
			r.With(requireUser).Get("/subscriptions", s.handleSubscriptions)
			r.Get("/{id}", s.handleGetUser)
			r.With(requireUser).Post("/{id}/subscribe", s.handleSubscribe)
			r.With(requireUser).Delete("/{id}/subscribe", s.handleUnsubscribe)
		})

		r.Get("/tags", s.handleListTags)
		r.Get("/tags/{id}", s.handleGetTag)
		r.Get("/ingredients", s.handleSearchIngredients)
		r.Get("/ingredients/{id}", s.handleGetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleListRecipes)
			r.With(requireUser).Post("/", s.handleCreateRecipe)
			r.With(requireUser).Get("/download_shopping_cart", s.handleDownloadShoppingCart)
			r.Get("/{id}", s.handleGetRecipe)
			r.With(requireUser).Patch("/{id}", s.handleUpdateRecipe)
			r.With(requireUser).Delete("/{id}", s.handleDeleteRecipe)
			r.With(requireUser).Post("/{id}/favorite", s.handleAddFavorite)
			r.With(requireUser).Delete("/{id}/favorite", s.handleRemoveFavorite)
			r.With(requireUser).Post("/{id}/shopping_cart", s.handleAddToCart)
			r.With(requireUser).Delete("/{id}/shopping_cart", s.handleRemoveFromCart)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, detail("Not found."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, detail("Method \""+r.Method+"\" not allowed."))
	})
	return r
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request and records it in the request
// metrics under the matched route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.RecordRequest(r.Method, route, status, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
