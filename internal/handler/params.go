package handler

import (
	"net/http"
	"strconv"

	"github.com/actuallystonmai/movie-search-service/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMinRatings = 100

	// make_date has no year 0 and overflows past year 5874897.
	minYear = 1
	maxYear = 9999
)

type yearRangeParams struct {
	StartYear string `param:"start_year" validate:"required,number"`
	EndYear   string `param:"end_year" validate:"required,number"`
}

type monthParams struct {
	Month string `param:"month" validate:"required,number"`
}

type optionalIntParams struct {
	Value string `param:"value" validate:"omitempty,number"`
}

// optionalInt reads a non-negative integer query parameter. Absent or
// malformed values fall back to def.
func optionalInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" || validation.Struct(&optionalIntParams{Value: raw}) != nil {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func movieIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
