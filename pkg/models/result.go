package models

import "time"

// ExtractionResult is the outcome of one extractor run. Failures are carried
// in Success/ErrorMessage rather than returned as errors.
type ExtractionResult struct {
	SourceName       string        `json:"sourceName"`
	Success          bool          `json:"success"`
	Comments         []Comment     `json:"-"`
	RecordsExtracted int           `json:"recordsExtracted"`
	ErrorMessage     string        `json:"errorMessage,omitempty"`
	StartedAt        time.Time     `json:"startedAt"`
	EndedAt          time.Time     `json:"endedAt"`
	Duration         time.Duration `json:"durationNs"`
}

// StartResult opens a result for the named source.
func StartResult(sourceName string, startedAt time.Time) ExtractionResult {
	return ExtractionResult{SourceName: sourceName, StartedAt: startedAt}
}

func (r *ExtractionResult) Succeed(comments []Comment) {
	r.Success = true
	r.Comments = comments
	r.RecordsExtracted = len(comments)
	r.ErrorMessage = ""
}

func (r *ExtractionResult) Fail(message string) {
	r.Success = false
	r.Comments = nil
	r.RecordsExtracted = 0
	r.ErrorMessage = message
}

// Finish stamps the end time and duration.
func (r *ExtractionResult) Finish(endedAt time.Time) {
	r.EndedAt = endedAt
	r.Duration = endedAt.Sub(r.StartedAt)
}

// Summary aggregates one orchestration run.
type Summary struct {
	StartedAt         time.Time          `json:"startedAt"`
	TotalSources      int                `json:"totalSources"`
	SuccessfulSources int                `json:"successfulSources"`
	TotalRecords      int                `json:"totalRecords"`
	Elapsed           time.Duration      `json:"elapsedNs"`
	StagedBatches     []string           `json:"stagedBatches"`
	StagingErrors     int                `json:"stagingErrors"`
	Results           []ExtractionResult `json:"results"`
}
