package etl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/models"
	"github.com/BartekS5/opinions-etl/pkg/utils"
)

var ErrMissingDate = errors.New("record has no creation date")

// Transformer maps generic rows (CSV records, SQL rows, BSON documents) to
// comments through a field mapping.
type Transformer struct {
	Mapping    models.FieldMapping
	SourceType models.SourceType
}

func NewTransformer(mapping models.FieldMapping, sourceType models.SourceType) *Transformer {
	return &Transformer{Mapping: mapping, SourceType: sourceType}
}

// RowToComment builds a comment from row. Column names match aliases
// regardless of case; nil and blank values count as absent.
func (t *Transformer) RowToComment(row map[string]interface{}, importedAt time.Time) (models.Comment, error) {
	index := make(map[string]interface{}, len(row))
	for k, v := range row {
		index[strings.ToLower(strings.TrimSpace(k))] = v
	}
	lookup := func(aliases []string) (interface{}, bool) {
		for _, alias := range aliases {
			v, ok := index[strings.ToLower(alias)]
			if !ok || v == nil {
				continue
			}
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
		return nil, false
	}
	str := func(aliases []string) string {
		if v, ok := lookup(aliases); ok {
			return utils.ConvertToString(v)
		}
		return ""
	}

	c := models.Comment{
		ID:         str(t.Mapping.ID),
		ProductID:  str(t.Mapping.ProductID),
		CustomerID: str(t.Mapping.CustomerID),
		Text:       str(t.Mapping.Text),
		Source:     str(t.Mapping.Source),
		SourceType: t.SourceType,
		Sentiment:  models.Neutral,
		ImportedAt: importedAt,
	}
	if c.Source == "" {
		c.Source = t.Mapping.DefaultSource
	}

	if v, ok := lookup(t.Mapping.CreatedAt); ok {
		created, err := utils.ConvertDateTime(v, t.Mapping.DateFormat)
		if err != nil {
			return models.Comment{}, fmt.Errorf("field createdAt: %w", err)
		}
		c.CreatedAt = created
	} else if t.Mapping.RequireDate {
		return models.Comment{}, ErrMissingDate
	} else {
		c.CreatedAt = importedAt
	}

	if v, ok := lookup(t.Mapping.Rating); ok {
		rating, err := utils.ConvertToFloat(v)
		if err != nil {
			return models.Comment{}, fmt.Errorf("field rating: %w", err)
		}
		c.Rating = rating
	}

	if v, ok := lookup(t.Mapping.Sentiment); ok {
		if s, err := models.ParseSentiment(utils.ConvertToString(v)); err == nil {
			c.Sentiment = s
		}
	}

	return c, nil
}
