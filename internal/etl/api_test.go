package etl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

func TestAPIExtractor_DecodesCaseInsensitively(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comments", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Id": "tw-1", "PRODUCTID": "P1", "customerid": "C7", "CreatedAt": "2024-03-07T09:30:00Z",
			 "Text": "love it", "Rating": 4.5, "Source": "Twitter", "Sentiment": "Positive"},
			{"id": "tw-2", "productId": "P2", "text": "  broken  ", "sentiment": 1},
			{"source": "Twitter"}
		]`))
	}))
	defer srv.Close()

	e := NewAPIExtractor(APIOptions{BaseURL: srv.URL, Endpoint: "api/comments", Timeout: time.Second})
	require.True(t, e.ValidateConfiguration())

	res := e.Extract(context.Background())
	require.True(t, res.Success, res.ErrorMessage)
	require.Len(t, res.Comments, 2)

	first := res.Comments[0]
	assert.Equal(t, "tw-1", first.ID)
	assert.Equal(t, "P1", first.ProductID)
	assert.Equal(t, "C7", first.CustomerID)
	assert.Equal(t, models.Positive, first.Sentiment)
	assert.Equal(t, models.SourceAPI, first.SourceType)
	assert.Equal(t, "Twitter", first.Source)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.5, *first.Rating)
	assert.False(t, first.ImportedAt.IsZero())

	second := res.Comments[1]
	assert.Equal(t, "broken", second.Text)
	assert.Equal(t, models.VeryNegative, second.Sentiment)
	assert.Equal(t, "API", second.Source)
	assert.Equal(t, second.ImportedAt, second.CreatedAt)
}

func TestAPIExtractor_AcceptsTimestampsWithoutZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "a", "productId": "P1", "text": "local time", "createdAt": "2024-03-07T09:30:00"},
			{"id": "b", "productId": "P2", "text": "utc", "createdAt": "2024-03-07T09:30:00Z"},
			{"id": "c", "productId": "P3", "text": "garbage date", "createdAt": "last tuesday"}
		]`))
	}))
	defer srv.Close()

	res := NewAPIExtractor(APIOptions{BaseURL: srv.URL}).Extract(context.Background())
	require.True(t, res.Success, res.ErrorMessage)
	require.Len(t, res.Comments, 2)

	want := time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "a", res.Comments[0].ID)
	assert.True(t, want.Equal(res.Comments[0].CreatedAt))
	assert.Equal(t, "b", res.Comments[1].ID)
	assert.True(t, want.Equal(res.Comments[1].CreatedAt))
}

func TestAPIExtractor_HTTPErrorFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	res := NewAPIExtractor(APIOptions{BaseURL: srv.URL}).Extract(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "502")
	assert.Contains(t, res.ErrorMessage, "upstream exploded")
}

func TestAPIExtractor_MalformedJSONFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	res := NewAPIExtractor(APIOptions{BaseURL: srv.URL}).Extract(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "decode response")
}

func TestAPIExtractor_TimeoutAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	started := time.Now()
	res := NewAPIExtractor(APIOptions{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Extract(context.Background())
	assert.False(t, res.Success)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestAPIExtractor_ValidateConfiguration(t *testing.T) {
	assert.False(t, NewAPIExtractor(APIOptions{}).ValidateConfiguration())
	assert.False(t, NewAPIExtractor(APIOptions{BaseURL: "not a url"}).ValidateConfiguration())
	assert.True(t, NewAPIExtractor(APIOptions{BaseURL: "https://reviews.example.com", Endpoint: "v1/comments"}).ValidateConfiguration())
	assert.Equal(t, "https://reviews.example.com/v1/comments",
		NewAPIExtractor(APIOptions{BaseURL: "https://reviews.example.com", Endpoint: "v1/comments"}).URL())
}
