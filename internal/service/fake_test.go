package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"github.com/actuallystonmai/movie-search-service/internal/repository"
)

type fakeRating struct {
	movieID int64
	rating  float64
	year    int
	month   int
}

type fakeGenome struct {
	movieID   int64
	tagID     int64
	relevance float64
}

// fakeStore is an in-memory catalog that mimics the SQL semantics closely
// enough for service tests.
type fakeStore struct {
	movies  []domain.Movie
	ratings []fakeRating
	genome  []fakeGenome
	tags    map[int64]string

	err      error
	sessions int
	released int
	calls    []string
}

func (f *fakeStore) WithSession(ctx context.Context, fn func(repository.Catalog) error) error {
	if f.err != nil {
		return f.err
	}
	f.sessions++
	defer func() { f.released++ }()
	return fn(f)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.err
}

func (f *fakeStore) stats(keep func(fakeRating) bool) map[int64]*domain.MovieStats {
	out := make(map[int64]*domain.MovieStats)
	sums := make(map[int64]float64)
	for _, r := range f.ratings {
		if keep != nil && !keep(r) {
			continue
		}
		sums[r.movieID] += r.rating
		st, ok := out[r.movieID]
		if !ok {
			m := f.movie(r.movieID)
			st = &domain.MovieStats{ID: m.ID, Title: m.Title, Genres: m.Genres}
			out[r.movieID] = st
		}
		st.RatingCount++
	}
	for id, st := range out {
		st.AvgRating = sums[id] / float64(st.RatingCount)
	}
	return out
}

func (f *fakeStore) movie(id int64) domain.Movie {
	for _, m := range f.movies {
		if m.ID == id {
			return m
		}
	}
	return domain.Movie{ID: id}
}

func topN(stats map[int64]*domain.MovieStats, keep func(*domain.MovieStats) bool, limit int) []domain.MovieStats {
	out := []domain.MovieStats{}
	for _, st := range stats {
		if keep(st) {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRating != out[j].AvgRating {
			return out[i].AvgRating > out[j].AvgRating
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeStore) SearchMoviesByTitle(ctx context.Context, title string, limit int) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "search")
	stats := f.stats(nil)
	out := []domain.MovieStats{}
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(title)) {
			st := domain.MovieStats{ID: m.ID, Title: m.Title, Genres: m.Genres}
			if s, ok := stats[m.ID]; ok {
				st = *s
			}
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeStore) TopRatedMovies(ctx context.Context, genre string, minRatings, limit int) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "top_rated")
	return topN(f.stats(nil), func(m *domain.MovieStats) bool {
		return m.RatingCount >= int64(minRatings) &&
			strings.Contains(strings.ToLower(m.Genres), strings.ToLower(genre))
	}, limit), nil
}

func (f *fakeStore) TopMoviesByYearRange(ctx context.Context, startYear, endYear, minRatings, limit int) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "year_range")
	stats := f.stats(func(r fakeRating) bool { return r.year >= startYear && r.year <= endYear })
	return topN(stats, func(m *domain.MovieStats) bool { return m.RatingCount >= int64(minRatings) }, limit), nil
}

func (f *fakeStore) TopMoviesByMonth(ctx context.Context, month, minRatings, limit int) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "month")
	stats := f.stats(func(r fakeRating) bool { return r.month == month })
	return topN(stats, func(m *domain.MovieStats) bool { return m.RatingCount >= int64(minRatings) }, limit), nil
}

func (f *fakeStore) MoviesByGenres(ctx context.Context, genres []string, minRatings, limit int) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "genres")
	return topN(f.stats(nil), func(m *domain.MovieStats) bool {
		if m.RatingCount < int64(minRatings) {
			return false
		}
		for _, g := range strings.Split(strings.ToLower(m.Genres), "|") {
			for _, want := range genres {
				if g == want {
					return true
				}
			}
		}
		return false
	}, limit), nil
}

func (f *fakeStore) FindMovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	f.calls = append(f.calls, "find")
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(title)) {
			found := m
			return &found, nil
		}
	}
	return nil, domain.ErrMovieNotFound
}

func (f *fakeStore) SimilarityCandidates(ctx context.Context, q domain.SimilarityQuery) ([]domain.MovieStats, error) {
	f.calls = append(f.calls, "candidates")
	refGenres := strings.Split(q.Reference.Genres, "|")
	return topN(f.stats(nil), func(m *domain.MovieStats) bool {
		if m.ID == q.Reference.ID || m.RatingCount < int64(q.MinRatings) {
			return false
		}
		if q.TargetRating != 0 && math.Abs(m.AvgRating-q.TargetRating) > q.RatingWindow {
			return false
		}
		for _, g := range strings.Split(m.Genres, "|") {
			for _, r := range refGenres {
				if g == r {
					return true
				}
			}
		}
		return false
	}, 0), nil
}

func (f *fakeStore) InformativeTags(ctx context.Context, movieID int64, limit int) ([]domain.TagRelevance, error) {
	f.calls = append(f.calls, "tags")
	out := []domain.TagRelevance{}
	for _, g := range f.genome {
		if g.movieID == movieID && g.relevance > 0.5 {
			out = append(out, domain.TagRelevance{TagID: g.tagID, Tag: f.tags[g.tagID], Relevance: g.relevance})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) TagScores(ctx context.Context, movieIDs, tagIDs []int64) ([]domain.TagScore, error) {
	f.calls = append(f.calls, "scores")
	inMovies := make(map[int64]bool)
	for _, id := range movieIDs {
		inMovies[id] = true
	}
	inTags := make(map[int64]bool)
	for _, id := range tagIDs {
		inTags[id] = true
	}
	var out []domain.TagScore
	for _, g := range f.genome {
		if inMovies[g.movieID] && inTags[g.tagID] && g.relevance > 0.5 {
			out = append(out, domain.TagScore{MovieID: g.movieID, TagID: g.tagID, Relevance: g.relevance})
		}
	}
	return out, nil
}

func (f *fakeStore) ReviewsPerYear(ctx context.Context, movieID int64) ([]domain.YearCount, error) {
	f.calls = append(f.calls, "reviews")
	byYear := make(map[int]int64)
	for _, r := range f.ratings {
		if r.movieID == movieID {
			byYear[r.year]++
		}
	}
	out := []domain.YearCount{}
	for y, c := range byYear {
		out = append(out, domain.YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (f *fakeStore) CountMovies(ctx context.Context) (int, error) {
	return len(f.movies), nil
}

// addRatings appends n ratings of value for movieID in the given year and month.
func (f *fakeStore) addRatings(movieID int64, n int, value float64, year, month int) {
	for i := 0; i < n; i++ {
		f.ratings = append(f.ratings, fakeRating{movieID: movieID, rating: value, year: year, month: month})
	}
}

// newCatalog builds a small MovieLens-like catalog.
func newCatalog() *fakeStore {
	f := &fakeStore{
		movies: []domain.Movie{
			{ID: 1, Title: "Toy Story (1995)", Genres: "Adventure|Animation|Children|Comedy|Fantasy"},
			{ID: 2, Title: "Jumanji (1995)", Genres: "Adventure|Children|Fantasy"},
			{ID: 3, Title: "Grumpier Old Men (1995)", Genres: "Comedy|Romance"},
			{ID: 4, Title: "Heat (1995)", Genres: "Action|Crime|Thriller"},
			{ID: 5, Title: "Toy Story 2 (1999)", Genres: "Adventure|Animation|Children|Comedy|Fantasy"},
			{ID: 6, Title: "Balto (1995)", Genres: "Adventure|Animation|Children"},
			{ID: 7, Title: "Obscure Cartoon (2001)", Genres: "Animation|Children"},
			{ID: 8, Title: "Overrated Comedy (2003)", Genres: "Comedy"},
		},
		tags: map[int64]string{1: "pixar", 2: "toys", 3: "friendship", 4: "heist", 5: "animation", 6: "kids", 7: "funny"},
	}

	f.addRatings(1, 200, 4.0, 1996, 3)
	f.addRatings(2, 150, 3.2, 1997, 7)
	f.addRatings(3, 120, 3.0, 2000, 3)
	f.addRatings(4, 300, 3.9, 2001, 12)
	f.addRatings(5, 180, 3.8, 2000, 3)
	f.addRatings(6, 110, 3.5, 1999, 3)
	f.addRatings(7, 20, 4.9, 2002, 3)
	f.addRatings(8, 130, 5.0, 2004, 5)

	f.genome = []fakeGenome{
		{1, 1, 0.95}, {1, 2, 0.9}, {1, 3, 0.7}, {1, 5, 0.6}, {1, 7, 0.3},
		{2, 3, 0.6}, {2, 6, 0.8},
		{3, 7, 0.9},
		{4, 4, 0.99},
		{5, 1, 0.97}, {5, 2, 0.95}, {5, 3, 0.8}, {5, 5, 0.7}, {5, 6, 0.65}, {5, 7, 0.55},
		{6, 3, 0.55}, {6, 5, 0.4},
		{7, 1, 0.9},
	}
	return f
}
