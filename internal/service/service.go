package service

import (
	"context"
	"math/rand"
	"strings"

	"github.com/actuallystonmai/movie-search-service/internal/repository"
	"github.com/actuallystonmai/movie-search-service/internal/similarity"
)

const (
	searchLimit       = 50
	topLimit          = 10
	movieTagsLimit    = 10
	recommendLimit    = 10
	recommendPoolSize = 100
	defaultMinRatings = 100

	minYear = 1
	maxYear = 9999
)

// Store hands out one catalog session per call and releases it when fn returns.
type Store interface {
	WithSession(ctx context.Context, fn func(repository.Catalog) error) error
	Ping(ctx context.Context) error
}

// Shuffler is the randomness used by genre recommendations. *rand.Rand
// satisfies it; the default uses the process-wide math/rand source.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

type Service struct {
	store           Store
	scorer          *similarity.Scorer
	rand            Shuffler
	popularityFloor int
}

func NewService(store Store, popularityFloor int, rnd Shuffler) *Service {
	if popularityFloor <= 0 {
		popularityFloor = defaultMinRatings
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Service{
		store:           store,
		scorer:          similarity.NewScorer(popularityFloor),
		rand:            rnd,
		popularityFloor: popularityFloor,
	}
}

func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ParseGenres splits a comma-separated genre list, dropping blanks.
func ParseGenres(list string) []string {
	var out []string
	for _, g := range strings.Split(list, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
