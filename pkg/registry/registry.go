// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func Load(path string) (*WorkerRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg WorkerRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

func (r *WorkerRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FindByTaskType returns the worker entry for a Zeebe task type, or nil.
func (r *WorkerRegistry) FindByTaskType(taskType string) *Worker {
	for i := range r.Workers {
		if r.Workers[i].TaskType == taskType {
			return &r.Workers[i]
		}
	}
	return nil
}

// Validate checks structural invariants: non-empty registry, unique IDs and
// task types, and required fields on every entry.
func (r *WorkerRegistry) Validate() error {
	if len(r.Workers) == 0 {
		return fmt.Errorf("registry contains no workers")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, w := range r.Workers {
		if w.ID == "" {
			return fmt.Errorf("worker missing required field: id")
		}
		if ids[w.ID] {
			return fmt.Errorf("duplicate worker id: %s", w.ID)
		}
		ids[w.ID] = true

		if w.TaskType == "" {
			return fmt.Errorf("worker %s missing required field: taskType", w.ID)
		}
		if taskTypes[w.TaskType] {
			return fmt.Errorf("duplicate task type: %s", w.TaskType)
		}
		taskTypes[w.TaskType] = true

		if w.DisplayName == "" {
			return fmt.Errorf("worker %s missing required field: displayName", w.ID)
		}
		if w.Category == "" {
			return fmt.Errorf("worker %s missing required field: category", w.ID)
		}
	}
	return nil
}
