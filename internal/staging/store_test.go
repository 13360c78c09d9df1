package staging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func sampleComments() []models.Comment {
	rating := 4.0
	return []models.Comment{
		{ID: "c1", ProductID: "P1", Text: "good value", Rating: &rating, Source: "Survey",
			SourceType: models.SourceFile, Sentiment: models.Positive,
			CreatedAt: time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)},
		{ID: "c2", ProductID: "P2", Text: "late delivery", Source: "Web",
			SourceType: models.SourceAPI, Sentiment: models.Negative,
			CreatedAt: time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)},
	}
}

func TestPersist_WritesReadableIndentedBatch(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 15, 0, 123456000, time.UTC)
	s := newTestStore(t, now)

	locator, err := s.Persist(sampleComments())
	require.NoError(t, err)
	assert.Equal(t, "staging_20240307_101500.123456.json", filepath.Base(locator))

	raw, err := os.ReadFile(locator)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "artifact should be indented JSON")

	got, err := s.Read(locator)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "P1", got[0].ProductID)
	assert.Equal(t, models.Positive, got[0].Sentiment)
	assert.Equal(t, models.SourceAPI, got[1].SourceType)
	assert.Nil(t, got[1].Rating)
}

func TestPersist_EmptyBatchWritesNothing(t *testing.T) {
	s := newTestStore(t, time.Now())

	locator, err := s.Persist(nil)
	require.NoError(t, err)
	assert.Empty(t, locator)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPersist_SameInstantDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t, time.Date(2024, 3, 7, 10, 15, 0, 0, time.UTC))

	first, err := s.Persist(sampleComments())
	require.NoError(t, err)
	second, err := s.Persist(sampleComments()[:1])
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	files, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, files)
}

func TestList_Chronological(t *testing.T) {
	s := newTestStore(t, time.Time{})
	stamps := []time.Time{
		time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	}
	for _, ts := range stamps {
		s.now = func() time.Time { return ts }
		_, err := s.Persist(sampleComments())
		require.NoError(t, err)
	}

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Contains(t, files[0], "staging_20240307")
	assert.Contains(t, files[1], "staging_20240308")
	assert.Contains(t, files[2], "staging_20240309")

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRead_MissingBatchIsNotExist(t *testing.T) {
	s := newTestStore(t, time.Now())

	_, err := s.Read(filepath.Join(s.Dir(), "staging_19990101_000000.000000.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMarkProcessed(t *testing.T) {
	s := newTestStore(t, time.Now())
	locator, err := s.Persist(sampleComments())
	require.NoError(t, err)

	require.NoError(t, s.MarkProcessed(locator))

	pending, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, pending)

	processed, err := s.Processed()
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.Equal(t, filepath.Base(locator), filepath.Base(processed[0]))
}

func TestPrune_Retention(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	s.now = func() time.Time { return now.AddDate(0, 0, -10) }
	old, err := s.Persist(sampleComments())
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -10), now.AddDate(0, 0, -10)))

	s.now = func() time.Time { return now.AddDate(0, 0, -2) }
	recent, err := s.Persist(sampleComments())
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(recent, now.AddDate(0, 0, -2), now.AddDate(0, 0, -2)))

	s.now = func() time.Time { return now }
	removed, err := s.Prune(7)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{recent}, files)
}

func TestPrune_AppliesToProcessedArea(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	locator, err := s.Persist(sampleComments())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessed(locator))

	processed, err := s.Processed()
	require.NoError(t, err)
	require.Len(t, processed, 1)
	require.NoError(t, os.Chtimes(processed[0], now.AddDate(0, 0, -30), now.AddDate(0, 0, -30)))

	removed, err := s.Prune(7)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestPrune_NegativeRetention(t *testing.T) {
	s := newTestStore(t, time.Now())
	_, err := s.Prune(-1)
	assert.Error(t, err)
}
