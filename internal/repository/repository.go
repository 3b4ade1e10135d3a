package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// informativeRelevance is the genome relevance a tag must exceed to describe a movie.
const informativeRelevance = 0.5

// Catalog is the read surface of one store session.
type Catalog interface {
	SearchMoviesByTitle(ctx context.Context, title string, limit int) ([]domain.MovieStats, error)
	TopRatedMovies(ctx context.Context, genre string, minRatings, limit int) ([]domain.MovieStats, error)
	TopMoviesByYearRange(ctx context.Context, startYear, endYear, minRatings, limit int) ([]domain.MovieStats, error)
	TopMoviesByMonth(ctx context.Context, month, minRatings, limit int) ([]domain.MovieStats, error)
	MoviesByGenres(ctx context.Context, genres []string, minRatings, limit int) ([]domain.MovieStats, error)
	FindMovieByTitle(ctx context.Context, title string) (*domain.Movie, error)
	SimilarityCandidates(ctx context.Context, q domain.SimilarityQuery) ([]domain.MovieStats, error)
	InformativeTags(ctx context.Context, movieID int64, limit int) ([]domain.TagRelevance, error)
	TagScores(ctx context.Context, movieIDs, tagIDs []int64) ([]domain.TagScore, error)
	ReviewsPerYear(ctx context.Context, movieID int64) ([]domain.YearCount, error)
	CountMovies(ctx context.Context) (int, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithSession acquires one pooled connection for the duration of fn and
// releases it on every exit path.
func (r *Repository) WithSession(ctx context.Context, fn func(Catalog) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues("acquire").Inc()
		return fmt.Errorf("acquire connection: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer conn.Release()

	return fn(&Session{conn: conn})
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// querier is the subset of pgx used by a Session, satisfied by *pgxpool.Conn.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session runs sequential queries on a single acquired connection.
type Session struct {
	conn querier
}

func (s *Session) query(ctx context.Context, op, sql string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := s.conn.Query(ctx, sql, args...)
	metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, queryErr(op, err)
	}
	return rows, nil
}

func queryErr(op string, err error) error {
	metrics.StoreQueryErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreQuery, err)
}

func collectMovieStats(op string, rows pgx.Rows) ([]domain.MovieStats, error) {
	defer rows.Close()

	items := []domain.MovieStats{}
	for rows.Next() {
		var m domain.MovieStats
		if err := rows.Scan(&m.ID, &m.Title, &m.Genres, &m.AvgRating, &m.RatingCount); err != nil {
			return nil, queryErr(op+": scan", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, queryErr(op+": iterate", err)
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// wildcards in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
