package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/handler"
	"github.com/actuallystonmai/movie-search-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubService struct{}

func (stubService) SearchMovies(ctx context.Context, query string) ([]domain.MovieStats, error) {
	return []domain.MovieStats{}, nil
}
func (stubService) TopRated(ctx context.Context, genre string, minRatings int) ([]domain.MovieStats, error) {
	return []domain.MovieStats{}, nil
}
func (stubService) MovieTags(ctx context.Context, movieID int64) ([]domain.TagRelevance, error) {
	return []domain.TagRelevance{}, nil
}
func (stubService) TopByYearRange(ctx context.Context, startYear, endYear int) ([]domain.MovieStats, error) {
	return []domain.MovieStats{}, nil
}
func (stubService) TopByMonth(ctx context.Context, month int) ([]domain.MovieStats, error) {
	return []domain.MovieStats{}, nil
}
func (stubService) SimilarMovies(ctx context.Context, movieTitle string, rating int) ([]domain.SimilarMovie, error) {
	return []domain.SimilarMovie{}, nil
}
func (stubService) RecommendByGenres(ctx context.Context, genres []string) ([]domain.MovieStats, error) {
	return []domain.MovieStats{}, nil
}
func (stubService) ReviewGraph(ctx context.Context, movieID int64) ([]byte, error) {
	return []byte{}, nil
}
func (stubService) Health(ctx context.Context) error { return nil }

func newRouter(opts Options) http.Handler {
	return Setup(handler.NewHandler(stubService{}), opts)
}

func TestRoutes(t *testing.T) {
	r := newRouter(Options{CORSAllowedOrigins: []string{"*"}, RequestTimeout: time.Second})

	paths := []string{
		"/health",
		"/metrics",
		"/api/movies/search?query=toy",
		"/api/movies/top-rated",
		"/api/movies/1/tags",
		"/api/movies/top-year-range?start_year=1995&end_year=2000",
		"/api/movies/similar?movie=toy",
		"/api/movies/top-month?month=4",
		"/api/movies/recommend?genres=Comedy",
		"/api/movies/1/review-graph",
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", p, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(Options{CORSAllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodGet, "/api/movies/top-rated", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	r := newRouter(Options{CORSAllowedOrigins: []string{"*"}, RateLimitRequests: 2, RateLimitWindow: time.Minute})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/movies/top-rated", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exceeding the limit, got %d", last)
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	r := newRouter(Options{CORSAllowedOrigins: []string{"*"}})
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/movies/{movieID}/tags", "200")
	before := testutil.ToFloat64(counter)

	for _, p := range []string{"/api/movies/1/tags", "/api/movies/2/tags"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %f", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics endpoint does not expose api_requests_total")
	}
}
