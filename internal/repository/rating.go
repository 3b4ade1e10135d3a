package repository

import (
	"context"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
)

func (s *Session) ReviewsPerYear(ctx context.Context, movieID int64) ([]domain.YearCount, error) {
	rows, err := s.query(ctx, "reviews_per_year",
		`SELECT EXTRACT(YEAR FROM rated_at)::int AS year, COUNT(*)
		FROM rating
		WHERE movie_id = $1
		GROUP BY year
		ORDER BY year`,
		movieID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []domain.YearCount{}
	for rows.Next() {
		var yc domain.YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, queryErr("scan review year", err)
		}
		counts = append(counts, yc)
	}

	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate review years", err)
	}
	return counts, nil
}

func (s *Session) CountMovies(ctx context.Context) (int, error) {
	var total int
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM movie`).Scan(&total); err != nil {
		return 0, queryErr("count movies", err)
	}
	return total, nil
}
