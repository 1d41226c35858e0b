// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-08-23T00:00:00Z",
		Workers: []Worker{
			{
				ID:          "check-eligibility",
				DisplayName: "Check Eligibility",
				Description: "Scores a credit profile and decides on a loan request",
				Category:    "loan",
				TaskType:    "check-eligibility",
				ErrorCodes:  []string{"ELIGIBILITY_CHECK_FAILED"},
				Timeout:     "10s",
			},
			{
				ID:          "create-loan-record",
				DisplayName: "Create Loan Record",
				Description: "Persists an approved loan and updates customer debt",
				Category:    "loan",
				TaskType:    "create-loan-record",
				ErrorCodes:  []string{"LOAN_NOT_APPROVED", "DATABASE_INSERT_FAILED"},
				Timeout:     "15s",
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	require.NoError(t, sampleRegistry().Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", loaded.Version)
	require.Len(t, loaded.Workers, 2)
	assert.Equal(t, "check-eligibility", loaded.Workers[0].TaskType)
}

func TestFindByTaskType(t *testing.T) {
	reg := sampleRegistry()

	found := reg.FindByTaskType("create-loan-record")
	require.NotNil(t, found)
	assert.Equal(t, "Create Loan Record", found.DisplayName)

	assert.Nil(t, reg.FindByTaskType("no-such-task"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *WorkerRegistry)
		wantErr string
	}{
		{
			name:   "valid registry",
			mutate: func(r *WorkerRegistry) {},
		},
		{
			name:    "empty registry",
			mutate:  func(r *WorkerRegistry) { r.Workers = nil },
			wantErr: "no workers",
		},
		{
			name:    "duplicate id",
			mutate:  func(r *WorkerRegistry) { r.Workers[1].ID = r.Workers[0].ID },
			wantErr: "duplicate worker id",
		},
		{
			name:    "duplicate task type",
			mutate:  func(r *WorkerRegistry) { r.Workers[1].TaskType = r.Workers[0].TaskType },
			wantErr: "duplicate task type",
		},
		{
			name:    "missing task type",
			mutate:  func(r *WorkerRegistry) { r.Workers[0].TaskType = "" },
			wantErr: "missing required field: taskType",
		},
		{
			name:    "missing display name",
			mutate:  func(r *WorkerRegistry) { r.Workers[1].DisplayName = "" },
			wantErr: "missing required field: displayName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sampleRegistry()
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
