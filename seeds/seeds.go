package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/actuallystonmai/movie-search-service/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

// insertChunk keeps multi-row inserts under the 65535 bind parameter limit.
const insertChunk = 1000

type movie struct {
	id     int64
	title  string
	genres []string
}

var movies = []movie{
	{1, "Toy Story (1995)", []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
	{2, "Jumanji (1995)", []string{"Adventure", "Children", "Fantasy"}},
	{3, "Grumpier Old Men (1995)", []string{"Comedy", "Romance"}},
	{4, "Heat (1995)", []string{"Action", "Crime", "Thriller"}},
	{5, "GoldenEye (1995)", []string{"Action", "Adventure", "Thriller"}},
	{6, "Se7en (1995)", []string{"Mystery", "Thriller"}},
	{7, "Usual Suspects, The (1995)", []string{"Crime", "Mystery", "Thriller"}},
	{8, "Braveheart (1995)", []string{"Action", "Drama", "War"}},
	{9, "Apollo 13 (1995)", []string{"Adventure", "Drama", "IMAX"}},
	{10, "Pulp Fiction (1994)", []string{"Comedy", "Crime", "Drama", "Thriller"}},
	{11, "Shawshank Redemption, The (1994)", []string{"Crime", "Drama"}},
	{12, "Forrest Gump (1994)", []string{"Comedy", "Drama", "Romance", "War"}},
	{13, "Lion King, The (1994)", []string{"Adventure", "Animation", "Children", "Drama", "Musical", "IMAX"}},
	{14, "Speed (1994)", []string{"Action", "Romance", "Thriller"}},
	{15, "Jurassic Park (1993)", []string{"Action", "Adventure", "Sci-Fi", "Thriller"}},
	{16, "Schindler's List (1993)", []string{"Drama", "War"}},
	{17, "Aladdin (1992)", []string{"Adventure", "Animation", "Children", "Comedy", "Musical"}},
	{18, "Terminator 2: Judgment Day (1991)", []string{"Action", "Sci-Fi"}},
	{19, "Silence of the Lambs, The (1991)", []string{"Crime", "Horror", "Thriller"}},
	{20, "Beauty and the Beast (1991)", []string{"Animation", "Children", "Fantasy", "Musical", "Romance", "IMAX"}},
	{21, "Fargo (1996)", []string{"Comedy", "Crime", "Drama", "Thriller"}},
	{22, "Toy Story 2 (1999)", []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
	{23, "Matrix, The (1999)", []string{"Action", "Sci-Fi", "Thriller"}},
	{24, "Fight Club (1999)", []string{"Action", "Crime", "Drama", "Thriller"}},
	{25, "Star Wars: Episode IV - A New Hope (1977)", []string{"Action", "Adventure", "Sci-Fi"}},
	{26, "Alien (1979)", []string{"Horror", "Sci-Fi"}},
	{27, "Godfather, The (1972)", []string{"Crime", "Drama"}},
	{28, "Princess Bride, The (1987)", []string{"Action", "Adventure", "Comedy", "Fantasy", "Romance"}},
	{29, "Back to the Future (1985)", []string{"Adventure", "Comedy", "Sci-Fi"}},
	{30, "Monsters, Inc. (2001)", []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
	{31, "Shrek (2001)", []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy", "Romance"}},
	{32, "Finding Nemo (2003)", []string{"Adventure", "Animation", "Children", "Comedy"}},
	{33, "Incredibles, The (2004)", []string{"Action", "Adventure", "Animation", "Children", "Comedy"}},
	{34, "Up (2009)", []string{"Adventure", "Animation", "Children", "Drama"}},
	{35, "Inception (2010)", []string{"Action", "Crime", "Drama", "Mystery", "Sci-Fi", "Thriller", "IMAX"}},
	{36, "Grand Budapest Hotel, The (2014)", []string{"Comedy", "Drama"}},
	{37, "Interstellar (2014)", []string{"Sci-Fi", "IMAX"}},
	{38, "Mad Max: Fury Road (2015)", []string{"Action", "Adventure", "Sci-Fi", "Thriller"}},
	{39, "Ex Machina (2015)", []string{"Drama", "Sci-Fi", "Thriller"}},
	{40, "Obscure Short Film (2012)", []string{"Documentary"}},
}

var genomeTags = []string{
	"007", "action", "animation", "atmospheric", "classic", "comedy", "dark",
	"dystopia", "family", "funny", "great ending", "heist", "imdb top 250",
	"kids", "mafia", "pixar", "sci-fi", "space", "suspense", "twist ending",
}

func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	rng := rand.New(rand.NewSource(42))
	log := logging.With("seed")

	// Truncate existing data before insert
	log.Info().Msg("truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE movie, rating, tag, genome_tags, genome_scores, link
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Info().Int("count", len(movies)).Msg("inserting movies")
	if err := seedMovies(ctx, pool); err != nil {
		return fmt.Errorf("seed movies: %w", err)
	}

	log.Info().Int("count", len(genomeTags)).Msg("inserting genome tags")
	if err := seedGenome(ctx, pool, rng); err != nil {
		return fmt.Errorf("seed genome: %w", err)
	}

	log.Info().Msg("inserting ratings and tags")
	if err := seedRatings(ctx, pool, rng, 400); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}

	log.Info().Msg("seeding complete")
	return nil
}

func seedMovies(ctx context.Context, pool *pgxpool.Pool) error {
	movieRows := make([][]any, 0, len(movies))
	linkRows := make([][]any, 0, len(movies))
	for _, m := range movies {
		movieRows = append(movieRows, []any{m.id, m.title, strings.Join(m.genres, "|")})
		linkRows = append(linkRows, []any{m.id, 100000 + m.id, 800 + m.id})
	}

	if err := insertRows(ctx, pool, "movie", []string{"movie_id", "title", "genres"}, movieRows); err != nil {
		return err
	}
	return insertRows(ctx, pool, "link", []string{"movie_id", "imdb_id", "tmdb_id"}, linkRows)
}

// seedGenome scores every movie against every tag. Tags matching one of the
// movie's genres lean towards high relevance.
func seedGenome(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	tagRows := make([][]any, 0, len(genomeTags))
	for i, tag := range genomeTags {
		tagRows = append(tagRows, []any{int64(i + 1), tag})
	}
	if err := insertRows(ctx, pool, "genome_tags", []string{"tag_id", "tag"}, tagRows); err != nil {
		return err
	}

	scoreRows := make([][]any, 0, len(movies)*len(genomeTags))
	for _, m := range movies {
		for i, tag := range genomeTags {
			relevance := math.Pow(rng.Float64(), 2) * 0.6
			if relatesToGenres(tag, m.genres) {
				relevance = 0.55 + rng.Float64()*0.45
			}
			relevance = math.Round(relevance*10000) / 10000
			scoreRows = append(scoreRows, []any{m.id, int64(i + 1), relevance})
		}
	}
	return insertRows(ctx, pool, "genome_scores", []string{"movie_id", "tag_id", "relevance"}, scoreRows)
}

// seedRatings gives every movie but the last a rating count above the
// default popularity floor, spread over 1996-2015.
func seedRatings(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, users int) error {
	start := time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)
	span := time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC).Sub(start)

	ratingRows := [][]any{}
	tagRows := [][]any{}
	for idx, m := range movies {
		count := 100 + rng.Intn(200)
		if idx == len(movies)-1 {
			count = 12
		}
		quality := 2.5 + rng.Float64()*2

		for _, u := range rng.Perm(users)[:count] {
			userID := int64(u + 1)
			rating := math.Round((quality+rng.NormFloat64()*0.8)*2) / 2
			rating = max(0.5, min(rating, 5))
			ratedAt := start.Add(time.Duration(rng.Int63n(int64(span)))).Truncate(time.Second)
			ratingRows = append(ratingRows, []any{userID, m.id, float32(rating), ratedAt})

			if rng.Intn(20) == 0 {
				tag := genomeTags[rng.Intn(len(genomeTags))]
				tagRows = append(tagRows, []any{userID, m.id, tag, ratedAt.Add(time.Minute)})
			}
		}
	}

	if err := insertRows(ctx, pool, "rating", []string{"user_id", "movie_id", "rating", "rated_at"}, ratingRows); err != nil {
		return err
	}
	return insertRows(ctx, pool, "tag", []string{"user_id", "movie_id", "tag", "tagged_at"}, tagRows)
}

func insertRows(ctx context.Context, pool *pgxpool.Pool, table string, columns []string, rows [][]any) error {
	for len(rows) > 0 {
		n := min(len(rows), insertChunk)
		query, args := buildInsert(table, columns, rows[:n])
		if _, err := pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		rows = rows[n:]
	}
	return nil
}

func buildInsert(table string, columns []string, rows [][]any) (string, []any) {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))

	for _, row := range rows {
		placeholders := make([]string, len(row))
		for i := range row {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+i+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, row...)
	}

	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES " +
		strings.Join(values, ", ")
	return query, args
}

var genreTags = map[string][]string{
	"Action":    {"action"},
	"Animation": {"animation", "pixar"},
	"Children":  {"family", "kids"},
	"Comedy":    {"comedy", "funny"},
	"Crime":     {"heist", "mafia"},
	"Drama":     {"classic", "great ending"},
	"Mystery":   {"twist ending", "suspense"},
	"Sci-Fi":    {"sci-fi", "space", "dystopia"},
	"Thriller":  {"suspense", "dark"},
	"Horror":    {"dark", "atmospheric"},
}

func relatesToGenres(tag string, genres []string) bool {
	for _, g := range genres {
		for _, t := range genreTags[g] {
			if t == tag {
				return true
			}
		}
	}
	return false
}
