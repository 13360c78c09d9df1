package loader

import (
	"strconv"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

// sentimentSeed is the fixed content of dim_sentiment. Score ranges are
// half-open and tile [-1.0, 1.0].
var sentimentSeed = map[models.Sentiment]models.DimSentiment{
	models.VeryNegative: {SentimentName: "Very Negative", RangeMin: -1.0, RangeMax: -0.6, ColorCode: "#DC3545"},
	models.Negative:     {SentimentName: "Negative", RangeMin: -0.6, RangeMax: -0.2, ColorCode: "#FD7E14"},
	models.Neutral:      {SentimentName: "Neutral", RangeMin: -0.2, RangeMax: 0.2, ColorCode: "#FFC107"},
	models.Positive:     {SentimentName: "Positive", RangeMin: 0.2, RangeMax: 0.6, ColorCode: "#28A745"},
	models.VeryPositive: {SentimentName: "Very Positive", RangeMin: 0.6, RangeMax: 1.0, ColorCode: "#198754"},
}

var sentimentScores = map[models.Sentiment]float64{
	models.VeryNegative: -0.8,
	models.Negative:     -0.4,
	models.Neutral:      0.0,
	models.Positive:     0.4,
	models.VeryPositive: 0.8,
}

// SentimentRows returns the seed rows in ordinal order.
func SentimentRows() []models.DimSentiment {
	rows := make([]models.DimSentiment, 0, len(models.Sentiments))
	for _, s := range models.Sentiments {
		row := sentimentSeed[s]
		row.SentimentID = naturalSentimentKey(s)
		row.Score = int(s)
		rows = append(rows, row)
	}
	return rows
}

// SentimentScore maps an ordinal sentiment to its fact-table score.
// Unknown values score as neutral.
func SentimentScore(s models.Sentiment) float64 {
	return sentimentScores[s]
}

// naturalSentimentKey is the dim_sentiment natural key of s.
func naturalSentimentKey(s models.Sentiment) string {
	return strconv.Itoa(int(s))
}
