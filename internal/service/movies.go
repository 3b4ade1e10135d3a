package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/actuallystonmai/movie-search-service/internal/chart"
	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/repository"
)

func (s *Service) SearchMovies(ctx context.Context, query string) ([]domain.MovieStats, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewInputError("Search query is required")
	}

	var movies []domain.MovieStats
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		movies, err = c.SearchMoviesByTitle(ctx, query, searchLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search movies %q: %w", query, err)
	}
	return movies, nil
}

// TopRated lists the highest average ratings among movies with at least
// minRatings ratings, optionally restricted to genres containing genre.
func (s *Service) TopRated(ctx context.Context, genre string, minRatings int) ([]domain.MovieStats, error) {
	if minRatings < 0 {
		return nil, domain.NewInputError("min_ratings must be a non-negative integer")
	}
	genre = strings.TrimSpace(genre)

	var movies []domain.MovieStats
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		movies, err = c.TopRatedMovies(ctx, genre, minRatings, topLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("top rated (genre=%q): %w", genre, err)
	}
	return movies, nil
}

func (s *Service) MovieTags(ctx context.Context, movieID int64) ([]domain.TagRelevance, error) {
	if movieID <= 0 {
		return nil, domain.NewInputError("Movie ID is required")
	}

	var tags []domain.TagRelevance
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		tags, err = c.InformativeTags(ctx, movieID, movieTagsLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tags for movie %d: %w", movieID, err)
	}
	return tags, nil
}

func (s *Service) TopByYearRange(ctx context.Context, startYear, endYear int) ([]domain.MovieStats, error) {
	if startYear < minYear || endYear > maxYear {
		return nil, domain.NewInputError("Valid start and end years are required")
	}
	if startYear > endYear {
		return nil, domain.NewInputError("Start year cannot be greater than end year")
	}

	var movies []domain.MovieStats
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		movies, err = c.TopMoviesByYearRange(ctx, startYear, endYear, s.popularityFloor, topLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("top movies %d-%d: %w", startYear, endYear, err)
	}
	return movies, nil
}

func (s *Service) TopByMonth(ctx context.Context, month int) ([]domain.MovieStats, error) {
	if month < 1 || month > 12 {
		return nil, domain.NewInputError("Valid month (1-12) is required")
	}

	var movies []domain.MovieStats
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		movies, err = c.TopMoviesByMonth(ctx, month, s.popularityFloor, topLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("top movies for month %d: %w", month, err)
	}
	return movies, nil
}

// RecommendByGenres picks a random subset of the eligible movies carrying any
// of the genres. The shuffle draws from the recommendPoolSize highest-rated
// matches, not from every match. Two identical calls can return different
// movies.
func (s *Service) RecommendByGenres(ctx context.Context, genres []string) ([]domain.MovieStats, error) {
	var labels []string
	for _, g := range genres {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			labels = append(labels, g)
		}
	}
	if len(labels) == 0 {
		return nil, domain.NewInputError("At least one genre is required")
	}

	var movies []domain.MovieStats
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		movies, err = c.MoviesByGenres(ctx, labels, s.popularityFloor, recommendPoolSize)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recommend by genres %v: %w", labels, err)
	}

	s.rand.Shuffle(len(movies), func(i, j int) {
		movies[i], movies[j] = movies[j], movies[i]
	})
	if len(movies) > recommendLimit {
		movies = movies[:recommendLimit]
	}
	return movies, nil
}

func (s *Service) ReviewsPerYear(ctx context.Context, movieID int64) ([]domain.YearCount, error) {
	var counts []domain.YearCount
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		var err error
		counts, err = c.ReviewsPerYear(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reviews per year for movie %d: %w", movieID, err)
	}
	return counts, nil
}

// ReviewGraph renders the yearly review histogram of a movie as a PNG. An id
// that is not positive names no movie and renders an empty chart.
func (s *Service) ReviewGraph(ctx context.Context, movieID int64) ([]byte, error) {
	var counts []domain.YearCount
	if movieID > 0 {
		var err error
		if counts, err = s.ReviewsPerYear(ctx, movieID); err != nil {
			return nil, err
		}
	}

	img, err := chart.ReviewsPerYear(counts)
	if err != nil {
		return nil, fmt.Errorf("review graph for movie %d: %w", movieID, err)
	}
	return img, nil
}
