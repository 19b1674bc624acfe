package steam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/retry"
)

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{
		MaxAttempts: attempts,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	client := NewClient(Options{
		BaseURL: server.URL,
		AppID:   "730",
		APIKey:  "secret",
		Timeout: 2 * time.Second,
		Retry:   fastRetry(attempts),
	}, log)
	return client, log
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchSendsExpectedParameters(t *testing.T) {
	var got *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, map[string]interface{}{"success": 1, "reviews": []interface{}{}, "cursor": "*"})
	}, 1)

	_, err := client.Fetch(context.Background(), "AoJ4+9yKvfQCd7Tz2AM=", 1000)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/appreviews/730", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "1", q.Get("json"))
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "all", q.Get("language"))
	assert.Equal(t, "all", q.Get("filter"))
	assert.Equal(t, "all", q.Get("review_type"))
	assert.Equal(t, "all", q.Get("purchase_type"))
	assert.Equal(t, "1000", q.Get("num_per_page"))
	assert.Equal(t, "AoJ4+9yKvfQCd7Tz2AM=", q.Get("cursor"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestFetchDecodesPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"success": 1,
			"query_summary": map[string]interface{}{
				"num_reviews":    2,
				"total_positive": 1,
			},
			"reviews": []map[string]interface{}{
				{"recommendationid": "1", "timestamp_created": 1730800000, "voted_up": true, "author": map[string]interface{}{"steamid": "x"}},
				{"recommendationid": "2", "timestamp_created": 1730700000, "voted_up": false},
			},
			"cursor": "next-cursor",
		})
	}, 1)

	page, err := client.Fetch(context.Background(), models.StartCursor, 100)
	require.NoError(t, err)

	require.Len(t, page.Reviews, 2)
	assert.Equal(t, models.Review{TimestampCreated: 1730800000, Vote: models.VoteUp}, page.Reviews[0])
	assert.Equal(t, models.VoteDown, page.Reviews[1].Vote)
	assert.Equal(t, models.Cursor("next-cursor"), page.Cursor)
	require.NotNil(t, page.Summary)
	assert.Equal(t, 2, page.Summary.NumReviews)
}

func TestFetchRetriesTransientStatuses(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int32
			client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) < 3 {
					w.WriteHeader(status)
					return
				}
				writeJSON(w, map[string]interface{}{"reviews": []interface{}{}, "cursor": ""})
			}, 5)

			_, err := client.Fetch(context.Background(), models.StartCursor, 10)
			require.NoError(t, err)
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
			assert.Equal(t, 2, countMessages(log, "retrying operation"))
		})
	}
}

func countMessages(log *logger.TestLogger, text string) int {
	n := 0
	for _, m := range log.GetMessages() {
		if m.Message == text {
			n++
		}
	}
	return n
}

func TestFetchGivesUpAfterBudget(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 5)

	_, err := client.Fetch(context.Background(), models.StartCursor, 10)
	require.Error(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
}

func TestFetchDoesNotRetryFatalFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType errs.ErrorType
	}{
		{
			name:     "not found",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantType: errs.ErrorTypeNotFound,
		},
		{
			name:     "forbidden",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			wantType: errs.ErrorTypeAuth,
		},
		{
			name:     "not implemented",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotImplemented) },
			wantType: errs.ErrorTypeServerError,
		},
		{
			name:     "malformed body",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>maintenance</html>")) },
			wantType: errs.ErrorTypeParsing,
		},
		{
			name: "success flag off",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]interface{}{"success": 2})
			},
			wantType: errs.ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}, 5)

			_, err := client.Fetch(context.Background(), models.StartCursor, 10)
			require.Error(t, err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantType, errs.TypeOf(err))
		})
	}
}

func TestFetchNetworkFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: baseURL, AppID: "730", Retry: fastRetry(5)}, logger.NewNopLogger())

	_, err := client.Fetch(context.Background(), models.StartCursor, 10)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
}

func TestFetchHonoursCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	client.retry.Backoff = &retry.ConstantBackoff{Delay: time.Minute}

	start := time.Now()
	_, err := client.Fetch(ctx, models.StartCursor, 10)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errs.New(errs.ErrorTypeRateLimit, 429, "x")))
	assert.True(t, IsTransient(retry.WithRetryAfter(errs.New(errs.ErrorTypeRateLimit, 429, "x"), time.Second)))
	assert.True(t, IsTransient(errs.New(errs.ErrorTypeServerError, 504, "x")))
	assert.False(t, IsTransient(errs.New(errs.ErrorTypeServerError, 501, "x")))
	assert.False(t, IsTransient(errs.New(errs.ErrorTypeNetwork, 0, "x")))
	assert.False(t, IsTransient(context.Canceled))
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Steam.AppID = "570"

	client := NewClientFromConfig(cfg, logger.NewNopLogger())

	assert.Equal(t, "570", client.opts.AppID)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 6, client.retry.MaxAttempts)
	assert.Equal(t, 30*time.Second, client.retry.MaxDelay)
	assert.IsType(t, &retry.ErrorTypeBackoff{}, client.retry.Backoff)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestFetchCapsServerRetryAfter(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "86400")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, map[string]interface{}{"reviews": []interface{}{}, "cursor": ""})
	}, 3)
	client.retry.MaxDelay = 10 * time.Millisecond

	start := time.Now()
	_, err := client.Fetch(context.Background(), models.StartCursor, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 5*time.Second)
}
