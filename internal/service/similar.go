package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/actuallystonmai/movie-search-service/internal/repository"
	"github.com/actuallystonmai/movie-search-service/internal/similarity"
)

// SimilarMovies ranks movies against the first title matching movieTitle.
// A rating of 0 disables the rating proximity filter. No matching title gives
// an empty result.
func (s *Service) SimilarMovies(ctx context.Context, movieTitle string, rating int) ([]domain.SimilarMovie, error) {
	movieTitle = strings.TrimSpace(movieTitle)
	if movieTitle == "" {
		return nil, domain.NewInputError("Movie title is required")
	}
	if rating < 0 {
		return nil, domain.NewInputError("rating must be a non-negative integer")
	}

	results := []domain.SimilarMovie{}
	err := s.store.WithSession(ctx, func(c repository.Catalog) error {
		ref, err := c.FindMovieByTitle(ctx, movieTitle)
		if errors.Is(err, domain.ErrMovieNotFound) {
			logging.Debug().Str("title", movieTitle).Msg("no movie found with the given title")
			return nil
		}
		if err != nil {
			return err
		}

		refTags, err := c.InformativeTags(ctx, ref.ID, 0)
		if err != nil {
			return err
		}

		candidates, err := c.SimilarityCandidates(ctx, domain.SimilarityQuery{
			Reference:    *ref,
			MinRatings:   s.scorer.MinRatings,
			TargetRating: float64(rating),
			RatingWindow: s.scorer.RatingWindow,
		})
		if err != nil {
			return err
		}

		scores, err := c.TagScores(ctx, movieIDs(candidates), tagIDs(refTags))
		if err != nil {
			return err
		}

		ranked := s.scorer.Score(similarity.Input{
			Reference:     *ref,
			ReferenceTags: refTags,
			Candidates:    candidates,
			Scores:        scores,
			TargetRating:  rating,
		})

		for _, r := range ranked {
			tags, err := c.InformativeTags(ctx, r.Movie.ID, similarity.TagsPerResult)
			if err != nil {
				return err
			}
			results = append(results, similarity.Present(r, tags))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("similar movies for %q: %w", movieTitle, err)
	}
	return results, nil
}

func movieIDs(movies []domain.MovieStats) []int64 {
	ids := make([]int64, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	return ids
}

func tagIDs(tags []domain.TagRelevance) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.TagID)
	}
	return ids
}
