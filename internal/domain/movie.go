package domain

// Movie is a catalog row. Genres holds the pipe-delimited labels as stored.
type Movie struct {
	ID     int64  `json:"movieId"`
	Title  string `json:"title"`
	Genres string `json:"genres"`
}

// MovieStats is a movie joined with its aggregated rating stats.
type MovieStats struct {
	ID          int64   `json:"movieId"`
	Title       string  `json:"title"`
	Genres      string  `json:"genres"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int64   `json:"rating_count"`
}

type TagRelevance struct {
	TagID     int64   `json:"tagId"`
	Tag       string  `json:"tag"`
	Relevance float64 `json:"relevance"`
}

// TagScore is a raw genome score row for a candidate movie.
type TagScore struct {
	MovieID   int64
	TagID     int64
	Relevance float64
}

type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}
