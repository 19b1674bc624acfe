package steam

import "steamreviews/pkg/models"

// ReviewsResponse is the body returned by /appreviews/{app_id}?json=1
type ReviewsResponse struct {
	Success      *int          `json:"success,omitempty"`
	QuerySummary *QuerySummary `json:"query_summary,omitempty"`
	Reviews      []Review      `json:"reviews"`
	Cursor       string        `json:"cursor"`
}

// QuerySummary is only populated on the first page
type QuerySummary struct {
	NumReviews      int    `json:"num_reviews"`
	ReviewScore     int    `json:"review_score"`
	ReviewScoreDesc string `json:"review_score_desc"`
	TotalPositive   int    `json:"total_positive"`
	TotalNegative   int    `json:"total_negative"`
	TotalReviews    int    `json:"total_reviews"`
}

// Review holds the fields of a review this tool reads; the rest are ignored
type Review struct {
	RecommendationID string `json:"recommendationid"`
	Language         string `json:"language"`
	TimestampCreated int64  `json:"timestamp_created"`
	TimestampUpdated int64  `json:"timestamp_updated"`
	VotedUp          bool   `json:"voted_up"`
}

// Page is one fetched page converted to domain records, in API order
// (newest first)
type Page struct {
	Reviews []models.Review
	Cursor  models.Cursor
	Summary *QuerySummary
}

// ToPage converts the wire response into a Page
func (r *ReviewsResponse) ToPage() *Page {
	page := &Page{
		Reviews: make([]models.Review, 0, len(r.Reviews)),
		Cursor:  models.Cursor(r.Cursor),
		Summary: r.QuerySummary,
	}
	for _, rv := range r.Reviews {
		vote := models.VoteDown
		if rv.VotedUp {
			vote = models.VoteUp
		}
		page.Reviews = append(page.Reviews, models.Review{
			TimestampCreated: rv.TimestampCreated,
			Vote:             vote,
		})
	}
	return page
}
