// Package store persists extraction runs and extracted values.
package store

import (
	"context"
	"time"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// Run is one live batch extraction against a file group.
type Run struct {
	ID          string     `json:"id"`
	GroupName   string     `json:"group_name"`
	FilesTotal  int        `json:"files_total"`
	FilesOK     int        `json:"files_ok"`
	FilesFailed int        `json:"files_failed"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExtractedValue is one persisted field value with its provenance.
type ExtractedValue struct {
	ID         int64           `json:"id,omitempty"`
	RunID      string          `json:"run_id"`
	FilePath   string          `json:"file_path"`
	FieldName  string          `json:"field_name"`
	Value      model.CellValue `json:"value"`
	Sheet      string          `json:"sheet"`
	Cell       string          `json:"cell"`
	MatchTier  int             `json:"match_tier"`
	Confidence float64         `json:"confidence"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store defines the persistence interface for live extraction results.
type Store interface {
	CreateRun(ctx context.Context, groupName string, filesTotal int) (string, error)
	CompleteRun(ctx context.Context, runID string, filesOK, filesFailed int) error
	SaveValues(ctx context.Context, runID, filePath string, mapping *model.GroupReferenceMapping, values map[string]model.CellValue) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListValues(ctx context.Context, runID string) ([]ExtractedValue, error)

	Migrate(ctx context.Context) error
	Close() error
}
