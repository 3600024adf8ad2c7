package entity

// Rating is the running aggregate kept on a recipient.
// Invariant: NumberReviewers == 0 implies AverageRating == 0.
type Rating struct {
	AverageRating   float64 `json:"averageRating"`
	NumberReviewers int     `json:"numberReviewers"`
}

// Fields returns the rating as a store field map
func (r Rating) Fields() map[string]any {
	return map[string]any{
		"averageRating":   r.AverageRating,
		"numberReviewers": r.NumberReviewers,
	}
}
