package provisioner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ruteri/kongcloak/interfaces"
)

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunDone   RunStatus = "done"
	RunFailed RunStatus = "failed"
)

// Report describes one pipeline run.
type Report struct {
	RunID      string       `json:"runId"`
	Realm      string       `json:"realm"`
	Mode       Mode         `json:"mode"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Status     RunStatus    `json:"status"`
	Steps      []StepResult `json:"steps"`
	Error      string       `json:"error,omitempty"`
}

// Key is the storage key of the report.
func (r *Report) Key() string {
	return fmt.Sprintf("%s-%s.json", r.Realm, r.RunID)
}

// Store writes the report as indented JSON and returns the key reported by the store.
func (r *Report) Store(ctx context.Context, store interfaces.StorageBackend) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key, err := store.Store(ctx, r.Key(), data, interfaces.ReportType)
	if err != nil {
		return "", fmt.Errorf("failed to store report %s: %w", r.Key(), err)
	}
	return key, nil
}
