package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const statsColumns = `m.movie_id, m.title, m.genres,
	COALESCE(AVG(r.rating), 0)::float8 AS avg_rating,
	COUNT(r.rating) AS rating_count`

func (s *Session) SearchMoviesByTitle(ctx context.Context, title string, limit int) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "search_title",
		`SELECT `+statsColumns+`
		FROM movie m
		LEFT JOIN rating r ON r.movie_id = m.movie_id
		WHERE m.title ILIKE $1
		GROUP BY m.movie_id, m.title, m.genres
		ORDER BY rating_count DESC, avg_rating DESC, m.movie_id
		LIMIT $2`,
		containsPattern(title), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("search_title", rows)
}

// TopRatedMovies ranks by average rating. An empty genre matches every movie.
func (s *Session) TopRatedMovies(ctx context.Context, genre string, minRatings, limit int) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "top_rated",
		`SELECT `+statsColumns+`
		FROM movie m
		JOIN rating r ON r.movie_id = m.movie_id
		WHERE m.genres ILIKE $1
		GROUP BY m.movie_id, m.title, m.genres
		HAVING COUNT(r.rating) >= $2
		ORDER BY avg_rating DESC, rating_count DESC, m.movie_id
		LIMIT $3`,
		containsPattern(genre), minRatings, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("top_rated", rows)
}

// TopMoviesByYearRange aggregates only the ratings made between the first day
// of startYear and the last day of endYear.
func (s *Session) TopMoviesByYearRange(ctx context.Context, startYear, endYear, minRatings, limit int) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "top_year_range",
		`SELECT `+statsColumns+`
		FROM rating r
		JOIN movie m ON m.movie_id = r.movie_id
		WHERE r.rated_at >= make_date($1::int, 1, 1)
		  AND r.rated_at < make_date($2::int + 1, 1, 1)
		GROUP BY m.movie_id, m.title, m.genres
		HAVING COUNT(r.rating) >= $3
		ORDER BY avg_rating DESC, rating_count DESC, m.movie_id
		LIMIT $4`,
		startYear, endYear, minRatings, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("top_year_range", rows)
}

func (s *Session) TopMoviesByMonth(ctx context.Context, month, minRatings, limit int) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "top_month",
		`SELECT `+statsColumns+`
		FROM rating r
		JOIN movie m ON m.movie_id = r.movie_id
		WHERE EXTRACT(MONTH FROM r.rated_at)::int = $1
		GROUP BY m.movie_id, m.title, m.genres
		HAVING COUNT(r.rating) >= $2
		ORDER BY avg_rating DESC, rating_count DESC, m.movie_id
		LIMIT $3`,
		month, minRatings, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("top_month", rows)
}

// MoviesByGenres returns eligible movies carrying any of the given labels.
// Labels compare case-insensitively.
func (s *Session) MoviesByGenres(ctx context.Context, genres []string, minRatings, limit int) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "genres",
		`SELECT `+statsColumns+`
		FROM movie m
		JOIN rating r ON r.movie_id = m.movie_id
		WHERE string_to_array(lower(m.genres), '|') && $1::text[]
		GROUP BY m.movie_id, m.title, m.genres
		HAVING COUNT(r.rating) >= $2
		ORDER BY avg_rating DESC, rating_count DESC, m.movie_id
		LIMIT $3`,
		genres, minRatings, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("genres", rows)
}

// FindMovieByTitle returns the lowest-id movie whose title contains title,
// ignoring case.
func (s *Session) FindMovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	m := &domain.Movie{}
	err := s.conn.QueryRow(ctx,
		`SELECT movie_id, title, genres
		FROM movie
		WHERE title ILIKE $1
		ORDER BY movie_id
		LIMIT 1`,
		containsPattern(title),
	).Scan(&m.ID, &m.Title, &m.Genres)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, queryErr(fmt.Sprintf("find movie %q", title), err)
	}
	return m, nil
}

// SimilarityCandidates returns movies other than the reference that share a
// genre label with it and pass the popularity floor and rating window.
func (s *Session) SimilarityCandidates(ctx context.Context, q domain.SimilarityQuery) ([]domain.MovieStats, error) {
	rows, err := s.query(ctx, "similarity_candidates",
		`SELECT `+statsColumns+`
		FROM movie m
		JOIN rating r ON r.movie_id = m.movie_id
		WHERE m.movie_id <> $1
		  AND string_to_array(m.genres, '|') && string_to_array($2::text, '|')
		GROUP BY m.movie_id, m.title, m.genres
		HAVING COUNT(r.rating) >= $3
		   AND ($4::float8 = 0 OR ABS(AVG(r.rating) - $4::float8) <= $5::float8)`,
		q.Reference.ID, q.Reference.Genres, q.MinRatings, q.TargetRating, q.RatingWindow,
	)
	if err != nil {
		return nil, err
	}
	return collectMovieStats("similarity_candidates", rows)
}
