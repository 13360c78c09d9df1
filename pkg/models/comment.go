package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourceType identifies the kind of source a comment was extracted from.
type SourceType int

const (
	SourceFile SourceType = iota + 1
	SourceDatabase
	SourceAPI
)

var sourceTypeNames = map[SourceType]string{
	SourceFile:     "File",
	SourceDatabase: "Database",
	SourceAPI:      "Api",
}

func (t SourceType) String() string {
	if name, ok := sourceTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

func (t SourceType) Valid() bool {
	_, ok := sourceTypeNames[t]
	return ok
}

func (t SourceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the type name (any case) or its ordinal.
func (t *SourceType) UnmarshalJSON(data []byte) error {
	ordinal, name, err := enumToken(data)
	if err != nil {
		return fmt.Errorf("sourceType: %w", err)
	}
	if name == "" {
		*t = SourceType(ordinal)
		return nil
	}
	switch strings.ToLower(name) {
	case "file", "csv":
		*t = SourceFile
	case "database", "db":
		*t = SourceDatabase
	case "api":
		*t = SourceAPI
	default:
		return fmt.Errorf("sourceType: unknown value %q", name)
	}
	return nil
}

// Sentiment is the ordinal opinion polarity carried by a comment (1..5).
type Sentiment int

const (
	VeryNegative Sentiment = iota + 1
	Negative
	Neutral
	Positive
	VeryPositive
)

// Sentiments lists every valid sentiment in ordinal order.
var Sentiments = []Sentiment{VeryNegative, Negative, Neutral, Positive, VeryPositive}

var sentimentNames = map[Sentiment]string{
	VeryNegative: "VeryNegative",
	Negative:     "Negative",
	Neutral:      "Neutral",
	Positive:     "Positive",
	VeryPositive: "VeryPositive",
}

func (s Sentiment) String() string {
	if name, ok := sentimentNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s Sentiment) Valid() bool {
	return s >= VeryNegative && s <= VeryPositive
}

func (s Sentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Sentiment) UnmarshalJSON(data []byte) error {
	ordinal, name, err := enumToken(data)
	if err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}
	if name == "" {
		*s = Sentiment(ordinal)
		return nil
	}
	parsed, err := ParseSentiment(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSentiment parses a sentiment name ("VeryPositive", "very_positive",
// "very positive") or ordinal ("5").
func ParseSentiment(value string) (Sentiment, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		s := Sentiment(n)
		if !s.Valid() {
			return 0, fmt.Errorf("sentiment: ordinal %d out of range", n)
		}
		return s, nil
	}
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(value))
	for s, name := range sentimentNames {
		if strings.ToLower(name) == normalized {
			return s, nil
		}
	}
	return 0, fmt.Errorf("sentiment: unknown value %q", value)
}

// enumToken decodes a JSON enum encoded either as a number or as a string.
func enumToken(data []byte) (int, string, error) {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return n, "", nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return 0, "", err
	}
	if n, err := strconv.Atoi(name); err == nil {
		return n, "", nil
	}
	return 0, name, nil
}

// Comment is one raw opinion record as produced by an extractor.
type Comment struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"productId"`
	CustomerID string     `json:"customerId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Text       string     `json:"text"`
	Rating     *float64   `json:"rating,omitempty"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"sourceType"`
	Sentiment  Sentiment  `json:"sentiment"`
	ImportedAt time.Time  `json:"importedAt"`
}
