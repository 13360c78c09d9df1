package etl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type FileOptions struct {
	Delimiter rune
	Timeout   time.Duration
}

// FileExtractor reads delimited files with a header row. Each file is read
// with the mapping of its configured profile.
type FileExtractor struct {
	sources   []models.FileSource
	profiles  map[models.Profile]models.FieldMapping
	opts      FileOptions
	validator *Validator
}

func NewFileExtractor(sources []models.FileSource, profiles map[models.Profile]models.FieldMapping, opts FileOptions) *FileExtractor {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &FileExtractor{
		sources:   sources,
		profiles:  profiles,
		opts:      opts,
		validator: NewValidator(),
	}
}

func (e *FileExtractor) Name() string { return "CSV Extractor" }

func (e *FileExtractor) SourceType() models.SourceType { return models.SourceFile }

func (e *FileExtractor) ValidateConfiguration() bool {
	if len(e.sources) == 0 {
		logger.Error("%s: no files configured", e.Name())
		return false
	}
	for _, src := range e.sources {
		if _, ok := e.profiles[src.Profile]; !ok {
			logger.Error("%s: no mapping for profile %q of %s", e.Name(), src.Profile, src.Path)
			return false
		}
	}
	for _, src := range e.sources {
		if _, err := os.Stat(src.Path); err == nil {
			return true
		}
	}
	logger.Error("%s: none of the %d configured files exist", e.Name(), len(e.sources))
	return false
}

func (e *FileExtractor) Extract(ctx context.Context) models.ExtractionResult {
	return runExtraction(ctx, e.Name(), e.ValidateConfiguration(), e.opts.Timeout, e.extract)
}

func (e *FileExtractor) extract(ctx context.Context, importedAt time.Time) ([]models.Comment, error) {
	var all []models.Comment
	for _, src := range e.sources {
		comments, err := e.readFile(ctx, src, importedAt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			logger.Error("%s: skipping %s: %v", e.Name(), src.Path, err)
			continue
		}
		logger.Info("%s: %d records from %s (%s)", e.Name(), len(comments), src.Path, src.Profile)
		all = append(all, comments...)
	}
	return all, nil
}

func (e *FileExtractor) readFile(ctx context.Context, src models.FileSource, importedAt time.Time) ([]models.Comment, error) {
	f, err := os.Open(src.Path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("%s: file not found, skipping: %s", e.Name(), src.Path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Path, err)
	}
	defer f.Close()

	mapping := e.profiles[src.Profile]
	transformer := NewTransformer(mapping, models.SourceFile)

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.Comma = e.opts.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", src.Path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var comments []models.Comment
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.Path, err)
		}

		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		line, _ := r.FieldPos(0)
		comment, err := transformer.RowToComment(row, importedAt)
		if err != nil {
			logger.Warn("%s: skipping %s line %d: %v", e.Name(), src.Path, line, err)
			continue
		}
		comment, err = e.validator.Normalize(comment, mapping.DefaultSource)
		if err != nil {
			logger.Warn("%s: skipping %s line %d: %v", e.Name(), src.Path, line, err)
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}
