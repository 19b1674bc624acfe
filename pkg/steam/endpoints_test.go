package steam

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewsURL(t *testing.T) {
	raw, err := ReviewsURL("https://store.steampowered.com/", Query{
		AppID:    "730",
		PageSize: 100,
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/appreviews/730", u.Path)
	assert.Equal(t, "*", u.Query().Get("cursor"), "empty cursor requests the first page")
	assert.False(t, u.Query().Has("key"), "no key parameter without an API key")
	assert.Equal(t, "all", u.Query().Get("review_type"))
}

func TestReviewsURLRejectsBadInput(t *testing.T) {
	_, err := ReviewsURL("", Query{AppID: "cs2", PageSize: 10})
	assert.Error(t, err)

	_, err = ReviewsURL("", Query{AppID: "730", PageSize: 0})
	assert.Error(t, err)
}

func TestIsValidAppID(t *testing.T) {
	assert.True(t, IsValidAppID("730"))
	assert.True(t, IsValidAppID("1091500"))
	assert.False(t, IsValidAppID(""))
	assert.False(t, IsValidAppID("73O"))
	assert.False(t, IsValidAppID("12345678901"))
}

func TestRedactKey(t *testing.T) {
	redacted := RedactKey("https://store.steampowered.com/appreviews/730?json=1&key=secret")
	assert.NotContains(t, redacted, "secret")
	assert.Contains(t, redacted, "key=REDACTED")

	assert.Equal(t, "https://x/appreviews/730?json=1", RedactKey("https://x/appreviews/730?json=1"))
}
