package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tanjoen/forenaide/constants"
	"github.com/tanjoen/forenaide/internal/common"
	"github.com/tanjoen/forenaide/internal/schema"
)

// FileRef points at one uploaded source file.
type FileRef struct {
	Filename    string `json:"filename"`
	Mimetype    string `json:"mimetype"`
	StoragePath string `json:"storage_path"`
}

// RunDescriptor is the handoff from the API to the orchestrator: one batch
// of files sharing a schema and strategy.
type RunDescriptor struct {
	RunID    uuid.UUID            `json:"run_id"`
	Strategy constants.StrategyID `json:"strategy"`
	Schema   schema.Config        `json:"schema"`
	Files    []FileRef            `json:"files"`
}

func (d *RunDescriptor) Validate() error {
	if d.RunID == uuid.Nil {
		return common.NewAppError("RUN_ID", "run id is required", common.ErrInvalidInput)
	}
	if len(d.Files) == 0 {
		return common.NewAppError("RUN_NO_FILES", "run requires at least one file", common.ErrInvalidInput)
	}
	for _, f := range d.Files {
		if f.StoragePath == "" {
			return common.NewAppError("RUN_FILE_PATH", "file has no storage path", common.ErrInvalidInput)
		}
		if f.Mimetype == "" {
			return common.NewAppError("RUN_FILE_MIMETYPE", "file has no mimetype", common.ErrInvalidInput)
		}
	}
	return d.Schema.Validate()
}

// Run is the persisted pipeline_runs row.
type Run struct {
	ID          uuid.UUID
	Name        string
	Description string
	Strategy    constants.StrategyID
	Schema      schema.Config
	Files       []FileRef
	Status      constants.RunStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Template is a reusable extraction schema.
type Template struct {
	ID          uuid.UUID
	Name        string
	Description string
	Schema      schema.Config
	CreatedAt   time.Time
}

// OutputRecord points at one artifact written for a run.
type OutputRecord struct {
	ID          uuid.UUID
	RunID       uuid.UUID
	Path        string
	ContentType string
	CreatedAt   time.Time
}
