package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Store manages artifact storage for one batch.
type Store struct {
	BatchID string
	BaseDir string // <stateDir>/batches/<batch_id>
}

// New creates a store for a batch, rooted at stateDir.
func New(batchID, stateDir string) (*Store, error) {
	base := filepath.Join(stateDir, "batches", batchID)
	if err := os.MkdirAll(filepath.Join(base, "actions"), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &Store{BatchID: batchID, BaseDir: base}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName maps an action id to something safe to use as a file name.
func fileName(actionID string) string {
	name := unsafeChars.ReplaceAllString(actionID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return name
}

// WriteActionOutput writes the captured stdout/stderr for an action. Empty
// streams are skipped.
func (s *Store) WriteActionOutput(actionID, stdout, stderr string) error {
	base := filepath.Join(s.BaseDir, "actions", fileName(actionID))
	if stdout != "" {
		if err := os.WriteFile(base+".stdout", []byte(stdout), 0o644); err != nil {
			return err
		}
	}
	if stderr != "" {
		if err := os.WriteFile(base+".stderr", []byte(stderr), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes the final batch report as report.json.
func (s *Store) WriteReport(report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BaseDir, "report.json"), data, 0o644)
}

// Remove deletes the batch directory.
func (s *Store) Remove() error {
	return os.RemoveAll(s.BaseDir)
}
