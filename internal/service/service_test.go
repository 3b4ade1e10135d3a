package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
)

func TestSimilarMovies(t *testing.T) {
	store := newCatalog()
	svc := NewService(store, 100, nil)

	results, err := svc.SimilarMovies(context.Background(), "toy story", 0)
	if err != nil {
		t.Fatalf("SimilarMovies failed: %v", err)
	}

	wantOrder := []int64{5, 2, 6, 8, 3}
	if len(results) != len(wantOrder) {
		t.Fatalf("expected %d results, got %d: %+v", len(wantOrder), len(results), results)
	}
	for i, id := range wantOrder {
		if results[i].ID != id {
			t.Errorf("position %d: expected movie %d, got %d", i, id, results[i].ID)
		}
	}

	top := results[0]
	if top.GenreSimilarity != 5 {
		t.Errorf("expected genre similarity 5, got %f", top.GenreSimilarity)
	}
	if top.TagSimilarity != 85.5 {
		t.Errorf("expected tag similarity 85.5, got %f", top.TagSimilarity)
	}
	if top.TotalSimilarity != 251.3 {
		t.Errorf("expected total similarity 251.3, got %f", top.TotalSimilarity)
	}
	if len(top.Tags) != 5 {
		t.Errorf("expected 5 tags, got %d", len(top.Tags))
	}
	for i := 1; i < len(top.Tags); i++ {
		if top.Tags[i-1].Relevance < top.Tags[i].Relevance {
			t.Errorf("tags not sorted by relevance: %+v", top.Tags)
		}
	}

	// Equal total similarity, higher average wins.
	if results[3].AvgRating <= results[4].AvgRating {
		t.Errorf("tie not broken by avg rating: %f vs %f", results[3].AvgRating, results[4].AvgRating)
	}

	for _, r := range results {
		if r.ID == 1 {
			t.Error("reference movie must not be returned")
		}
		if r.RatingCount < 100 {
			t.Errorf("movie %d under the popularity floor", r.ID)
		}
	}

	if store.sessions != 1 || store.released != 1 {
		t.Errorf("expected one acquired and released session, got %d/%d", store.sessions, store.released)
	}
}

func TestSimilarMoviesWithRating(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	results, err := svc.SimilarMovies(context.Background(), "Toy Story", 4)
	if err != nil {
		t.Fatalf("SimilarMovies failed: %v", err)
	}

	if len(results) != 2 || results[0].ID != 5 || results[1].ID != 6 {
		t.Fatalf("unexpected results: %+v", results)
	}
	for _, r := range results {
		if r.AvgRating < 3.5 || r.AvgRating > 4.5 {
			t.Errorf("movie %d avg %f outside the rating window", r.ID, r.AvgRating)
		}
	}
}

func TestSimilarMoviesNotFound(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	results, err := svc.SimilarMovies(context.Background(), "does not exist", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", results)
	}
}

func TestSimilarMoviesValidation(t *testing.T) {
	store := newCatalog()
	svc := NewService(store, 100, nil)

	if _, err := svc.SimilarMovies(context.Background(), "  ", 0); !domain.IsInputError(err) {
		t.Errorf("expected input error for blank title, got %v", err)
	}
	if _, err := svc.SimilarMovies(context.Background(), "Toy", -1); !domain.IsInputError(err) {
		t.Errorf("expected input error for negative rating, got %v", err)
	}
	if store.sessions != 0 {
		t.Errorf("store must not be touched on invalid input, got %d sessions", store.sessions)
	}
}

func TestStoreUnavailable(t *testing.T) {
	store := newCatalog()
	store.err = fmt.Errorf("acquire connection: %w", domain.ErrStoreUnavailable)
	svc := NewService(store, 100, nil)

	_, err := svc.SimilarMovies(context.Background(), "Toy", 0)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	_, err = svc.SearchMovies(context.Background(), "Toy")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	if err := svc.Health(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected unhealthy store, got %v", err)
	}
}

func TestSearchMovies(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	movies, err := svc.SearchMovies(context.Background(), "TOY")
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(movies))
	}
	if movies[0].RatingCount != 200 {
		t.Errorf("expected rating stats joined, got %+v", movies[0])
	}

	if _, err := svc.SearchMovies(context.Background(), ""); !domain.IsInputError(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestTopRated(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	movies, err := svc.TopRated(context.Background(), "comedy", 100)
	if err != nil {
		t.Fatalf("TopRated failed: %v", err)
	}

	want := []int64{8, 1, 5, 3}
	if len(movies) != len(want) {
		t.Fatalf("expected %d movies, got %d", len(want), len(movies))
	}
	for i, id := range want {
		if movies[i].ID != id {
			t.Errorf("position %d: expected %d, got %d", i, id, movies[i].ID)
		}
	}

	all, err := svc.TopRated(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("TopRated failed: %v", err)
	}
	if len(all) != 8 {
		t.Errorf("expected all 8 movies without filters, got %d", len(all))
	}

	if _, err := svc.TopRated(context.Background(), "", -5); !domain.IsInputError(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestTopByYearRange(t *testing.T) {
	store := newCatalog()
	svc := NewService(store, 100, nil)

	movies, err := svc.TopByYearRange(context.Background(), 1995, 2000)
	if err != nil {
		t.Fatalf("TopByYearRange failed: %v", err)
	}
	want := []int64{1, 5, 6, 2, 3}
	if len(movies) != len(want) {
		t.Fatalf("expected %d movies, got %d", len(want), len(movies))
	}
	for i, id := range want {
		if movies[i].ID != id {
			t.Errorf("position %d: expected %d, got %d", i, id, movies[i].ID)
		}
	}

	before := store.sessions
	if _, err := svc.TopByYearRange(context.Background(), 2000, 1999); !domain.IsInputError(err) {
		t.Errorf("expected input error for inverted range, got %v", err)
	}
	if store.sessions != before {
		t.Error("inverted range must be rejected before store access")
	}

	for _, r := range [][2]int{{0, 2000}, {2000, 10000}} {
		if _, err := svc.TopByYearRange(context.Background(), r[0], r[1]); !domain.IsInputError(err) {
			t.Errorf("expected input error for %d-%d, got %v", r[0], r[1], err)
		}
	}
	if store.sessions != before {
		t.Error("out of range years must be rejected before store access")
	}
}

func TestTopByMonth(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	movies, err := svc.TopByMonth(context.Background(), 3)
	if err != nil {
		t.Fatalf("TopByMonth failed: %v", err)
	}
	want := []int64{1, 5, 6, 3}
	if len(movies) != len(want) {
		t.Fatalf("expected %d movies, got %d", len(want), len(movies))
	}
	for i, id := range want {
		if movies[i].ID != id {
			t.Errorf("position %d: expected %d, got %d", i, id, movies[i].ID)
		}
	}

	for _, month := range []int{0, 13} {
		if _, err := svc.TopByMonth(context.Background(), month); !domain.IsInputError(err) {
			t.Errorf("month %d: expected input error, got %v", month, err)
		}
	}
}

func TestMovieTags(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	tags, err := svc.MovieTags(context.Background(), 1)
	if err != nil {
		t.Fatalf("MovieTags failed: %v", err)
	}
	if len(tags) != 4 {
		t.Fatalf("expected 4 informative tags, got %d", len(tags))
	}
	if tags[0].Tag != "pixar" {
		t.Errorf("expected strongest tag first, got %s", tags[0].Tag)
	}
}

func idSet(movies []domain.MovieStats) map[int64]bool {
	set := make(map[int64]bool, len(movies))
	for _, m := range movies {
		set[m.ID] = true
	}
	return set
}

func TestRecommendByGenres(t *testing.T) {
	store := newCatalog()
	svc := NewService(store, 100, rand.New(rand.NewSource(1)))

	movies, err := svc.RecommendByGenres(context.Background(), ParseGenres("Animation, ,"))
	if err != nil {
		t.Fatalf("RecommendByGenres failed: %v", err)
	}

	got := idSet(movies)
	for _, id := range []int64{1, 5, 6} {
		if !got[id] {
			t.Errorf("expected movie %d in recommendations %v", id, got)
		}
	}
	if len(movies) != 3 {
		t.Errorf("expected 3 movies, got %d", len(movies))
	}

	if _, err := svc.RecommendByGenres(context.Background(), ParseGenres(" , ")); !domain.IsInputError(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestRecommendByGenresTruncates(t *testing.T) {
	store := &fakeStore{}
	for i := int64(1); i <= 25; i++ {
		store.movies = append(store.movies, domain.Movie{ID: i, Title: fmt.Sprintf("Comedy %d", i), Genres: "Comedy|Drama"})
		store.addRatings(i, 100, 3.0, 2000, 1)
	}

	first := NewService(store, 100, rand.New(rand.NewSource(1)))
	second := NewService(store, 100, rand.New(rand.NewSource(2)))

	a, err := first.RecommendByGenres(context.Background(), []string{"drama", "Horror"})
	if err != nil {
		t.Fatalf("RecommendByGenres failed: %v", err)
	}
	b, err := second.RecommendByGenres(context.Background(), []string{"drama", "Horror"})
	if err != nil {
		t.Fatalf("RecommendByGenres failed: %v", err)
	}

	if len(a) != 10 || len(b) != 10 {
		t.Fatalf("expected 10 recommendations each, got %d and %d", len(a), len(b))
	}
	for id := range idSet(a) {
		if id < 1 || id > 25 {
			t.Errorf("unexpected movie %d", id)
		}
	}
	if len(idSet(a)) != 10 {
		t.Error("recommendations contain duplicates")
	}
}

type recordingShuffler struct {
	n int
}

func (r *recordingShuffler) Shuffle(n int, swap func(i, j int)) {
	r.n = n
	if n > 1 {
		swap(0, n-1)
	}
}

func TestRecommendUsesInjectedRandomness(t *testing.T) {
	shuffler := &recordingShuffler{}
	svc := NewService(newCatalog(), 100, shuffler)

	movies, err := svc.RecommendByGenres(context.Background(), []string{"animation"})
	if err != nil {
		t.Fatalf("RecommendByGenres failed: %v", err)
	}
	if shuffler.n != 3 {
		t.Errorf("expected shuffle over 3 candidates, got %d", shuffler.n)
	}
	// Pool is ordered 1, 5, 6 by average rating; the swap moves 6 to the front.
	if movies[0].ID != 6 || movies[2].ID != 1 {
		t.Errorf("shuffle result not applied: %+v", movies)
	}
}

func TestReviewGraph(t *testing.T) {
	svc := NewService(newCatalog(), 100, nil)

	counts, err := svc.ReviewsPerYear(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReviewsPerYear failed: %v", err)
	}
	if len(counts) != 1 || counts[0].Year != 1996 || counts[0].Count != 200 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	img, err := svc.ReviewGraph(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReviewGraph failed: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestReviewGraphUnknownID(t *testing.T) {
	store := newCatalog()
	svc := NewService(store, 100, nil)

	img, err := svc.ReviewGraph(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReviewGraph failed: %v", err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
	if store.sessions != 0 {
		t.Errorf("expected no store access, got %d sessions", store.sessions)
	}
}
