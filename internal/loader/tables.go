package loader

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Table maps one MovieLens CSV file onto a catalog table.
type Table struct {
	Name    string
	File    string
	Columns []string
	// Parse converts a CSV record into column values, in Columns order.
	Parse func(record []string) ([]any, error)
}

// Tables lists every file the loader imports, in import order.
var Tables = []Table{
	{
		Name:    "genome_scores",
		File:    "genome_scores.csv",
		Columns: []string{"movie_id", "tag_id", "relevance"},
		Parse:   parseGenomeScore,
	},
	{
		Name:    "genome_tags",
		File:    "genome_tags.csv",
		Columns: []string{"tag_id", "tag"},
		Parse:   parseGenomeTag,
	},
	{
		Name:    "link",
		File:    "link.csv",
		Columns: []string{"movie_id", "imdb_id", "tmdb_id"},
		Parse:   parseLink,
	},
	{
		Name:    "movie",
		File:    "movie.csv",
		Columns: []string{"movie_id", "title", "genres"},
		Parse:   parseMovie,
	},
	{
		Name:    "rating",
		File:    "rating.csv",
		Columns: []string{"user_id", "movie_id", "rating", "rated_at"},
		Parse:   parseRating,
	},
	{
		Name:    "tag",
		File:    "tag.csv",
		Columns: []string{"user_id", "movie_id", "tag", "tagged_at"},
		Parse:   parseTag,
	},
}

// TableNames returns the names of the given tables.
func TableNames(tables []Table) []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names
}

func parseGenomeScore(rec []string) ([]any, error) {
	movieID, err := parseID("movieId", rec[0])
	if err != nil {
		return nil, err
	}
	tagID, err := parseID("tagId", rec[1])
	if err != nil {
		return nil, err
	}
	relevance, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("relevance %q: %w", rec[2], err)
	}
	if relevance < 0 || relevance > 1 || math.IsNaN(relevance) {
		return nil, fmt.Errorf("relevance %v outside [0,1]", relevance)
	}
	return []any{movieID, tagID, relevance}, nil
}

func parseGenomeTag(rec []string) ([]any, error) {
	tagID, err := parseID("tagId", rec[0])
	if err != nil {
		return nil, err
	}
	return []any{tagID, rec[1]}, nil
}

func parseLink(rec []string) ([]any, error) {
	movieID, err := parseID("movieId", rec[0])
	if err != nil {
		return nil, err
	}
	imdbID, err := parseOptionalID("imdbId", rec[1])
	if err != nil {
		return nil, err
	}
	tmdbID, err := parseOptionalID("tmdbId", rec[2])
	if err != nil {
		return nil, err
	}
	return []any{movieID, imdbID, tmdbID}, nil
}

func parseMovie(rec []string) ([]any, error) {
	movieID, err := parseID("movieId", rec[0])
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rec[1]) == "" {
		return nil, errors.New("empty title")
	}
	return []any{movieID, rec[1], rec[2]}, nil
}

func parseRating(rec []string) ([]any, error) {
	userID, err := parseID("userId", rec[0])
	if err != nil {
		return nil, err
	}
	movieID, err := parseID("movieId", rec[1])
	if err != nil {
		return nil, err
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 32)
	if err != nil {
		return nil, fmt.Errorf("rating %q: %w", rec[2], err)
	}
	ratedAt, err := ParseTimestamp(rec[3])
	if err != nil {
		return nil, err
	}
	return []any{userID, movieID, float32(rating), ratedAt}, nil
}

func parseTag(rec []string) ([]any, error) {
	userID, err := parseID("userId", rec[0])
	if err != nil {
		return nil, err
	}
	movieID, err := parseID("movieId", rec[1])
	if err != nil {
		return nil, err
	}
	taggedAt, err := ParseTimestamp(rec[3])
	if err != nil {
		return nil, err
	}
	return []any{userID, movieID, rec[2], taggedAt}, nil
}

// ParseTimestamp accepts "YYYY-MM-DD HH:MM:SS" or unix seconds, both in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(timestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: want %q or unix seconds", s, timestampLayout)
}

func parseID(field, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, err)
	}
	return id, nil
}

// parseOptionalID returns nil for an empty field. Some exports write ids as
// floats ("862.0"); integral floats are accepted.
func parseOptionalID(field, s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%s %q: not an integer", field, s)
	}
	return int64(f), nil
}
