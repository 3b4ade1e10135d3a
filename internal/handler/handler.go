package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

// MovieService is the query surface the HTTP layer depends on.
type MovieService interface {
	SearchMovies(ctx context.Context, query string) ([]domain.MovieStats, error)
	TopRated(ctx context.Context, genre string, minRatings int) ([]domain.MovieStats, error)
	MovieTags(ctx context.Context, movieID int64) ([]domain.TagRelevance, error)
	TopByYearRange(ctx context.Context, startYear, endYear int) ([]domain.MovieStats, error)
	TopByMonth(ctx context.Context, month int) ([]domain.MovieStats, error)
	SimilarMovies(ctx context.Context, movieTitle string, rating int) ([]domain.SimilarMovie, error)
	RecommendByGenres(ctx context.Context, genres []string) ([]domain.MovieStats, error)
	ReviewGraph(ctx context.Context, movieID int64) ([]byte, error)
	Health(ctx context.Context) error
}

type Handler struct {
	service MovieService
}

func NewHandler(svc MovieService) *Handler {
	return &Handler{service: svc}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// respondError maps service errors to status codes. Client input errors keep
// their message; everything else is logged and reported as a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Msg)
		return
	}

	logging.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")

	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusInternalServerError, "Database connection failed")
	case errors.Is(err, domain.ErrStoreQuery):
		writeError(w, http.StatusInternalServerError, "Database query failed")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusInternalServerError, "Request timed out")
	default:
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
