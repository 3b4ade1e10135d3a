package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
)

const (
	GenreWeight = 0.4
	TagWeight   = 0.6

	// RelevanceThreshold marks a genome score as informative. Rows at or
	// below it never contribute to tag similarity.
	RelevanceThreshold = 0.5

	DefaultMinRatings   = 100
	DefaultRatingWindow = 0.5
	DefaultLimit        = 10
	TagsPerResult       = 5
)

type Scorer struct {
	MinRatings   int
	RatingWindow float64
	Limit        int
}

func NewScorer(minRatings int) *Scorer {
	if minRatings <= 0 {
		minRatings = DefaultMinRatings
	}
	return &Scorer{
		MinRatings:   minRatings,
		RatingWindow: DefaultRatingWindow,
		Limit:        DefaultLimit,
	}
}

type Input struct {
	Reference     domain.Movie
	ReferenceTags []domain.TagRelevance
	Candidates    []domain.MovieStats
	Scores        []domain.TagScore
	// TargetRating of 0 disables the rating proximity filter.
	TargetRating int
}

type Scored struct {
	Movie           domain.MovieStats
	GenreSimilarity float64
	TagSimilarity   float64
	TotalSimilarity float64
}

func (s *Scorer) Score(input Input) []Scored {
	refGenres := SplitGenres(input.Reference.Genres)
	tagIDs := make([]int64, 0, len(input.ReferenceTags))
	for _, t := range input.ReferenceTags {
		if t.Relevance > RelevanceThreshold {
			tagIDs = append(tagIDs, t.TagID)
		}
	}
	byMovie := groupScores(input.Scores)

	scored := make([]Scored, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		if c.ID == input.Reference.ID {
			continue
		}
		genres := SplitGenres(c.Genres)
		if !SharesGenre(refGenres, genres) || !s.Eligible(c, input.TargetRating) {
			continue
		}
		genre := GenreSimilarity(refGenres, genres)
		tag := TagSimilarity(tagIDs, byMovie[c.ID])
		scored = append(scored, Scored{
			Movie:           c,
			GenreSimilarity: genre,
			TagSimilarity:   tag,
			TotalSimilarity: TotalSimilarity(genre, tag),
		})
	}

	return Rank(scored, s.Limit)
}

// Eligible applies the popularity floor and, when target is non-zero, the
// rating proximity window.
func (s *Scorer) Eligible(c domain.MovieStats, target int) bool {
	if c.RatingCount < int64(s.MinRatings) {
		return false
	}
	if target == 0 {
		return true
	}
	return math.Abs(c.AvgRating-float64(target)) <= s.RatingWindow
}

// SplitGenres turns the stored pipe-delimited genre field into labels.
func SplitGenres(genres string) []string {
	parts := strings.Split(genres, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func SharesGenre(a, b []string) bool {
	return GenreSimilarity(a, b) > 0
}

// GenreSimilarity is (|A| + |B| - |A Δ B|) / 2, the number of labels both
// lists have in common. Duplicate labels within one list count once.
func GenreSimilarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	symDiff := 0
	for g := range setA {
		if _, ok := setB[g]; !ok {
			symDiff++
		}
	}
	for g := range setB {
		if _, ok := setA[g]; !ok {
			symDiff++
		}
	}
	return float64(len(setA)+len(setB)-symDiff) / 2
}

// TagSimilarity averages the candidate's informative relevance over the
// reference tag ids. Zero when nothing qualifies.
func TagSimilarity(tagIDs []int64, scores []domain.TagScore) float64 {
	if len(tagIDs) == 0 || len(scores) == 0 {
		return 0
	}
	wanted := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
	}

	sum := 0.0
	n := 0
	for _, sc := range scores {
		if _, ok := wanted[sc.TagID]; !ok || sc.Relevance <= RelevanceThreshold {
			continue
		}
		sum += sc.Relevance
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func TotalSimilarity(genre, tag float64) float64 {
	return genre*GenreWeight + tag*TagWeight
}

// Rank orders by total similarity, then average rating, then movie id, and
// keeps the first limit entries.
func Rank(scored []Scored, limit int) []Scored {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.TotalSimilarity != b.TotalSimilarity {
			return a.TotalSimilarity > b.TotalSimilarity
		}
		if a.Movie.AvgRating != b.Movie.AvgRating {
			return a.Movie.AvgRating > b.Movie.AvgRating
		}
		return a.Movie.ID < b.Movie.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Present converts a ranked entry to its response shape: similarities as
// percentages, everything rounded to 2 decimals.
func Present(s Scored, tags []domain.TagRelevance) domain.SimilarMovie {
	if tags == nil {
		tags = []domain.TagRelevance{}
	}
	m := s.Movie
	m.AvgRating = Round2(m.AvgRating)
	return domain.SimilarMovie{
		MovieStats:      m,
		GenreSimilarity: Round2(s.GenreSimilarity),
		TagSimilarity:   Round2(s.TagSimilarity * 100),
		TotalSimilarity: Round2(s.TotalSimilarity * 100),
		Tags:            tags,
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func groupScores(scores []domain.TagScore) map[int64][]domain.TagScore {
	out := make(map[int64][]domain.TagScore)
	for _, sc := range scores {
		out[sc.MovieID] = append(out[sc.MovieID], sc)
	}
	return out
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}
