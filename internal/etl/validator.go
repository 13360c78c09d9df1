package etl

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

var ErrEmptyComment = errors.New("record has no product, customer or text")

type Validator struct {
	newID func() string
}

func NewValidator() *Validator {
	return &Validator{newID: uuid.NewString}
}

// Normalize trims c and fills its defaults: a generated id, the given source
// name and a neutral sentiment. Records carrying nothing to load are rejected
// with ErrEmptyComment.
func (v *Validator) Normalize(c models.Comment, defaultSource string) (models.Comment, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.ProductID = strings.TrimSpace(c.ProductID)
	c.CustomerID = strings.TrimSpace(c.CustomerID)
	c.Text = strings.TrimSpace(c.Text)
	c.Source = strings.TrimSpace(c.Source)

	if c.ProductID == "" && c.CustomerID == "" && c.Text == "" {
		return c, ErrEmptyComment
	}
	if c.ID == "" {
		c.ID = v.newID()
	}
	if c.Source == "" {
		c.Source = defaultSource
	}
	if !c.Sentiment.Valid() {
		c.Sentiment = models.Neutral
	}
	return c, nil
}
