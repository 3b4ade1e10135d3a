package handler

import (
	"net/http"
	"strconv"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/service"
	"github.com/actuallystonmai/movie-search-service/internal/validation"
)

// GET /api/movies/search?query=
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	movies, err := h.service.SearchMovies(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/top-rated?genre=&min_ratings=
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	minRatings := optionalInt(r, "min_ratings", defaultMinRatings)

	movies, err := h.service.TopRated(r.Context(), r.URL.Query().Get("genre"), minRatings)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/{movieID}/tags
//
// An id that is not a positive integer names no movie, so it has no tags.
func (h *Handler) MovieTags(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, []domain.TagRelevance{})
		return
	}

	tags, err := h.service.MovieTags(r.Context(), movieID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// GET /api/movies/top-year-range?start_year=&end_year=
func (h *Handler) TopByYearRange(w http.ResponseWriter, r *http.Request) {
	params := yearRangeParams{
		StartYear: r.URL.Query().Get("start_year"),
		EndYear:   r.URL.Query().Get("end_year"),
	}
	if err := validation.Struct(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Valid start and end years are required")
		return
	}
	startYear, err1 := strconv.Atoi(params.StartYear)
	endYear, err2 := strconv.Atoi(params.EndYear)
	if err1 != nil || err2 != nil || startYear < minYear || endYear > maxYear {
		writeError(w, http.StatusBadRequest, "Valid start and end years are required")
		return
	}
	if startYear > endYear {
		writeError(w, http.StatusBadRequest, "Start year cannot be greater than end year")
		return
	}

	movies, err := h.service.TopByYearRange(r.Context(), startYear, endYear)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/similar?movie=&rating=
func (h *Handler) SimilarMovies(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("movie")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Movie title is required")
		return
	}
	rating := optionalInt(r, "rating", 0)

	movies, err := h.service.SimilarMovies(r.Context(), title, rating)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/top-month?month=
func (h *Handler) TopByMonth(w http.ResponseWriter, r *http.Request) {
	params := monthParams{Month: r.URL.Query().Get("month")}
	if err := validation.Struct(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Valid month (1-12) is required")
		return
	}
	month, err := strconv.Atoi(params.Month)
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Valid month (1-12) is required")
		return
	}

	movies, err := h.service.TopByMonth(r.Context(), month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/recommend?genres=a,b
func (h *Handler) RecommendByGenres(w http.ResponseWriter, r *http.Request) {
	genres := service.ParseGenres(r.URL.Query().Get("genres"))
	if len(genres) == 0 {
		writeError(w, http.StatusBadRequest, "At least one genre is required")
		return
	}

	movies, err := h.service.RecommendByGenres(r.Context(), genres)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GET /api/movies/{movieID}/review-graph
//
// A malformed id is drawn as an empty chart, like any movie without reviews.
func (h *Handler) ReviewGraph(w http.ResponseWriter, r *http.Request) {
	movieID, _ := movieIDParam(r)

	img, err := h.service.ReviewGraph(r.Context(), movieID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
