package router

import (
	"net/http"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	CORSAllowedOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func Setup(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/movies", func(r chi.Router) {
		r.Use(instrument)
		if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}

		r.Get("/search", h.SearchMovies)
		r.Get("/top-rated", h.TopRated)
		r.Get("/top-year-range", h.TopByYearRange)
		r.Get("/top-month", h.TopByMonth)
		r.Get("/similar", h.SimilarMovies)
		r.Get("/recommend", h.RecommendByGenres)
		r.Get("/{movieID}/tags", h.MovieTags)
		r.Get("/{movieID}/review-graph", h.ReviewGraph)
	})

	return r
}
