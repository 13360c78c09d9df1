// Package staging keeps extracted batches on disk as immutable JSON snapshots
// between extraction and load.
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

const (
	filePrefix      = "staging_"
	fileExt         = ".json"
	processedDir    = "processed"
	timestampLayout = "20060102_150405.000000"
)

// Store is a directory of staged batches. Each batch is one file named
// staging_<yyyyMMdd_HHmmss.ffffff>.json (UTC), so lexical order is
// chronological order. Loaded batches move to <dir>/processed.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, processedDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory '%s': %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Persist writes comments as a new batch and returns its locator. An empty
// batch writes nothing and returns "".
func (s *Store) Persist(comments []models.Comment) (string, error) {
	if len(comments) == 0 {
		logger.Warn("No comments to stage, skipping empty batch")
		return "", nil
	}

	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode staged batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-staging-*")
	if err != nil {
		return "", fmt.Errorf("create staged batch: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write staged batch: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync staged batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close staged batch: %w", err)
	}

	locator := s.nextLocator()
	if err := os.Rename(tmpName, locator); err != nil {
		return "", fmt.Errorf("publish staged batch: %w", err)
	}

	logger.Info("Staged %d comments: %s", len(comments), locator)
	return locator, nil
}

// nextLocator picks an unused name; callers hold s.mu.
func (s *Store) nextLocator() string {
	stamp := s.now().UTC().Format(timestampLayout)
	candidate := filepath.Join(s.dir, filePrefix+stamp+fileExt)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s%s_%d%s", filePrefix, stamp, i, fileExt))
	}
}

// List returns pending batch locators, oldest first.
func (s *Store) List() ([]string, error) {
	return listBatches(s.dir)
}

func (s *Store) Count() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// Read decodes one staged batch. A missing artifact is reported as an
// error wrapping os.ErrNotExist.
func (s *Store) Read(locator string) ([]models.Comment, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, fmt.Errorf("read staged batch '%s': %w", locator, err)
	}
	var comments []models.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("parse staged batch '%s': %w", locator, err)
	}
	return comments, nil
}

// MarkProcessed moves a loaded batch into the processed area, replacing any
// artifact of the same name already there.
func (s *Store) MarkProcessed(locator string) error {
	dest := filepath.Join(s.dir, processedDir, filepath.Base(locator))
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace processed batch '%s': %w", dest, err)
	}
	if err := os.Rename(locator, dest); err != nil {
		return fmt.Errorf("move batch to processed: %w", err)
	}
	logger.Info("Moved batch to processed: %s", filepath.Base(locator))
	return nil
}

// Processed lists batches already loaded, oldest first.
func (s *Store) Processed() ([]string, error) {
	return listBatches(filepath.Join(s.dir, processedDir))
}

// Prune deletes pending and processed batches last modified before
// now - retentionDays. It keeps going past individual failures and returns
// how many files were removed.
func (s *Store) Prune(retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("retention days must not be negative: %d", retentionDays)
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	pending, err := s.List()
	if err != nil {
		return 0, err
	}
	processed, err := s.Processed()
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, file := range append(pending, processed...) {
		info, err := os.Stat(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			logger.Error("Failed to delete old staged batch %s: %v", file, err)
			errs = append(errs, err)
			continue
		}
		removed++
		logger.Info("Deleted old staged batch: %s", file)
	}
	return removed, errors.Join(errs...)
}

func listBatches(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileExt))
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.Compare(filepath.Base(files[i]), filepath.Base(files[j])) < 0
	})
	return files, nil
}
