package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
)

// InformativeTags lists a movie's genome tags above the relevance threshold,
// strongest first. A limit of 0 returns all of them.
func (s *Session) InformativeTags(ctx context.Context, movieID int64, limit int) ([]domain.TagRelevance, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.query(ctx, "informative_tags",
		`SELECT gs.tag_id, gt.tag, gs.relevance
		FROM genome_scores gs
		JOIN genome_tags gt ON gt.tag_id = gs.tag_id
		WHERE gs.movie_id = $1 AND gs.relevance > $2
		ORDER BY gs.relevance DESC, gs.tag_id
		LIMIT $3`,
		movieID, informativeRelevance, lim,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.TagRelevance{}
	for rows.Next() {
		var t domain.TagRelevance
		if err := rows.Scan(&t.TagID, &t.Tag, &t.Relevance); err != nil {
			return nil, queryErr(fmt.Sprintf("scan tag for movie %d", movieID), err)
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate tags", err)
	}
	return tags, nil
}

// TagScores fetches the informative genome scores of movieIDs restricted to tagIDs.
func (s *Session) TagScores(ctx context.Context, movieIDs, tagIDs []int64) ([]domain.TagScore, error) {
	if len(movieIDs) == 0 || len(tagIDs) == 0 {
		return nil, nil
	}

	rows, err := s.query(ctx, "tag_scores",
		`SELECT movie_id, tag_id, relevance
		FROM genome_scores
		WHERE movie_id = ANY($1) AND tag_id = ANY($2) AND relevance > $3`,
		movieIDs, tagIDs, informativeRelevance,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []domain.TagScore
	for rows.Next() {
		var sc domain.TagScore
		if err := rows.Scan(&sc.MovieID, &sc.TagID, &sc.Relevance); err != nil {
			return nil, queryErr("scan tag score", err)
		}
		scores = append(scores, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate tag scores", err)
	}
	return scores, nil
}
