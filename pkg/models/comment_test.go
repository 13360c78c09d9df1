package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Sentiment
	}{
		{"name", `"VeryPositive"`, VeryPositive},
		{"lower snake", `"very_negative"`, VeryNegative},
		{"ordinal number", `3`, Neutral},
		{"ordinal string", `"2"`, Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sentiment
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.want, s)
		})
	}

	out, err := json.Marshal(Positive)
	require.NoError(t, err)
	assert.JSONEq(t, `"Positive"`, string(out))
}

func TestParseSentiment_Invalid(t *testing.T) {
	_, err := ParseSentiment("ecstatic")
	assert.Error(t, err)

	_, err = ParseSentiment("9")
	assert.Error(t, err)
}

func TestSourceTypeJSON(t *testing.T) {
	var st SourceType
	require.NoError(t, json.Unmarshal([]byte(`"api"`), &st))
	assert.Equal(t, SourceAPI, st)

	require.NoError(t, json.Unmarshal([]byte(`2`), &st))
	assert.Equal(t, SourceDatabase, st)

	require.NoError(t, json.Unmarshal([]byte(`"CSV"`), &st))
	assert.Equal(t, SourceFile, st)

	assert.Error(t, json.Unmarshal([]byte(`"fax"`), &st))
}

func TestComment_CaseInsensitiveDecode(t *testing.T) {
	raw := `[{"PRODUCTID":"P1","customerid":"C1","Text":"great","Rating":4.5,"createdAt":"2024-03-07T10:00:00Z","Sentiment":"Positive"}]`

	var comments []Comment
	require.NoError(t, json.Unmarshal([]byte(raw), &comments))
	require.Len(t, comments, 1)

	c := comments[0]
	assert.Equal(t, "P1", c.ProductID)
	assert.Equal(t, "C1", c.CustomerID)
	assert.Equal(t, "great", c.Text)
	require.NotNil(t, c.Rating)
	assert.InDelta(t, 4.5, *c.Rating, 1e-9)
	assert.Equal(t, Positive, c.Sentiment)
}

func TestLoadMapping(t *testing.T) {
	cfg, err := LoadMapping([]byte(`{"version":"2","profiles":{"survey":{"productId":["sku"],"defaultSource":"Panel"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.Version)
	assert.Equal(t, []string{"sku"}, cfg.Profiles[ProfileSurvey].ProductID)

	_, err = LoadMapping([]byte(`{"profiles":{"spreadsheet":{}}}`))
	assert.Error(t, err)
}
