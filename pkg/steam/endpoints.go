package steam

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"steamreviews/pkg/models"
)

const (
	// DefaultBaseURL is the Steam store host serving the reviews API
	DefaultBaseURL = "https://store.steampowered.com"

	// ReviewsEndpoint is followed by the numeric app ID
	ReviewsEndpoint = "/appreviews/"

	// FilterAll is accepted by the language, filter, review_type and
	// purchase_type parameters
	FilterAll = "all"
)

// Query holds the parameters of one reviews request
type Query struct {
	AppID        string
	APIKey       string
	Language     string
	Filter       string
	ReviewType   string
	PurchaseType string
	PageSize     int
	Cursor       models.Cursor
}

// ReviewsURL builds the full request URL for q
func ReviewsURL(baseURL string, q Query) (string, error) {
	if !IsValidAppID(q.AppID) {
		return "", fmt.Errorf("invalid app id %q", q.AppID)
	}
	if q.PageSize <= 0 {
		return "", fmt.Errorf("page size must be positive, got %d", q.PageSize)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cursor := q.Cursor
	if cursor == "" {
		cursor = models.StartCursor
	}

	params := url.Values{}
	params.Set("json", "1")
	if q.APIKey != "" {
		params.Set("key", q.APIKey)
	}
	params.Set("language", orAll(q.Language))
	params.Set("filter", orAll(q.Filter))
	params.Set("review_type", orAll(q.ReviewType))
	params.Set("purchase_type", orAll(q.PurchaseType))
	params.Set("num_per_page", strconv.Itoa(q.PageSize))
	params.Set("cursor", cursor.String())

	return fmt.Sprintf("%s%s%s?%s", strings.TrimRight(baseURL, "/"), ReviewsEndpoint, q.AppID, params.Encode()), nil
}

// IsValidAppID reports whether id looks like a Steam app ID
func IsValidAppID(id string) bool {
	if id == "" || len(id) > 10 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RedactKey removes the API key from a request URL so it can be logged
func RedactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func orAll(v string) string {
	if v == "" {
		return FilterAll
	}
	return v
}
