package domain

type SimilarMovie struct {
	MovieStats
	GenreSimilarity float64        `json:"genre_similarity"`
	TagSimilarity   float64        `json:"tag_similarity"`
	TotalSimilarity float64        `json:"total_similarity"`
	Tags            []TagRelevance `json:"tags"`
}

// SimilarityQuery carries the candidate filter for one reference movie.
type SimilarityQuery struct {
	Reference    Movie
	MinRatings   int
	TargetRating float64
	RatingWindow float64
}
