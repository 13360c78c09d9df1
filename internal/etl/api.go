package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

const maxErrorBody = 512

// apiRecordMapping reads the comment objects of the remote endpoint. Keys
// match regardless of case; records without a date get the import time.
var apiRecordMapping = models.FieldMapping{
	ID:            []string{"id"},
	ProductID:     []string{"productId"},
	CustomerID:    []string{"customerId"},
	CreatedAt:     []string{"createdAt"},
	Text:          []string{"text"},
	Rating:        []string{"rating"},
	Source:        []string{"source"},
	Sentiment:     []string{"sentiment"},
	DefaultSource: "API",
}

type APIOptions struct {
	BaseURL  string
	Endpoint string
	Timeout  time.Duration
	// Client defaults to a client with Timeout.
	Client *http.Client
}

// APIExtractor fetches a JSON array of comments with one GET request.
type APIExtractor struct {
	opts        APIOptions
	client      *http.Client
	transformer *Transformer
	validator   *Validator
}

func NewAPIExtractor(opts APIOptions) *APIExtractor {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &APIExtractor{
		opts:        opts,
		client:      client,
		transformer: NewTransformer(apiRecordMapping, models.SourceAPI),
		validator:   NewValidator(),
	}
}

func (e *APIExtractor) Name() string { return "API Extractor" }

func (e *APIExtractor) SourceType() models.SourceType { return models.SourceAPI }

// URL joins the base URL and the endpoint path.
func (e *APIExtractor) URL() string {
	if e.opts.Endpoint == "" {
		return e.opts.BaseURL
	}
	return e.opts.BaseURL + "/" + e.opts.Endpoint
}

func (e *APIExtractor) ValidateConfiguration() bool {
	if e.opts.BaseURL == "" {
		logger.Error("%s: API URL not configured", e.Name())
		return false
	}
	u, err := url.Parse(e.URL())
	if err != nil || !u.IsAbs() || u.Host == "" {
		logger.Error("%s: invalid API URL: %s", e.Name(), e.URL())
		return false
	}
	return true
}

func (e *APIExtractor) Extract(ctx context.Context) models.ExtractionResult {
	return runExtraction(ctx, e.Name(), e.ValidateConfiguration(), e.opts.Timeout, e.extract)
}

func (e *APIExtractor) extract(ctx context.Context, importedAt time.Time) ([]models.Comment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("HTTP error: %s: %s", resp.Status, body)
	}

	var records []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	comments := make([]models.Comment, 0, len(records))
	for i, record := range records {
		c, err := e.transformer.RowToComment(record, importedAt)
		if err != nil {
			logger.Warn("%s: skipping record %d: %v", e.Name(), i, err)
			continue
		}
		normalized, err := e.validator.Normalize(c, apiRecordMapping.DefaultSource)
		if err != nil {
			logger.Warn("%s: skipping record %d: %v", e.Name(), i, err)
			continue
		}
		comments = append(comments, normalized)
	}
	return comments, nil
}
