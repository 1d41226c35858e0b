// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"credit-workers/pkg/registry"
)

const defaultRegistryPath = "configs/worker-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	id := fs.String("id", "", "Worker ID (e.g., check-eligibility)")
	displayName := fs.String("displayName", "", "Display name")
	description := fs.String("description", "", "Description")
	category := fs.String("category", "", "Category (loan, customer, data-access, communication)")
	taskType := fs.String("taskType", "", "Zeebe task type")
	version := fs.String("version", "1.0.0", "Version")
	timeout := fs.String("timeout", "10s", "Job timeout")
	retries := fs.Int("retries", 3, "Max retries")
	fs.Parse(args)

	if *id == "" || *displayName == "" || *category == "" || *taskType == "" {
		fs.Usage()
		return fmt.Errorf("id, displayName, category, and taskType are required")
	}

	reg, err := registry.Load(*path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load registry: %w", err)
		}
		reg = &registry.WorkerRegistry{Version: "1.0.0"}
	}

	if reg.FindByTaskType(*taskType) != nil {
		return fmt.Errorf("task type %s already registered", *taskType)
	}
	for _, w := range reg.Workers {
		if w.ID == *id {
			return fmt.Errorf("worker id %s already registered", *id)
		}
	}

	reg.Workers = append(reg.Workers, registry.Worker{
		ID:           *id,
		DisplayName:  *displayName,
		Description:  *description,
		Category:     *category,
		Version:      *version,
		TaskType:     *taskType,
		InputSchema:  map[string]interface{}{},
		OutputSchema: map[string]interface{}{},
		ErrorCodes:   []string{},
		Timeout:      *timeout,
		Retries:      *retries,
		Workflows:    []string{},
		Tags:         []string{},
	})
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Added worker: %s\n", *id)
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	id := fs.String("id", "", "Worker ID to update")
	field := fs.String("field", "", "Field to update (displayName, description, category, taskType, version, timeout, retries)")
	value := fs.String("value", "", "New value")
	fs.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		fs.Usage()
		return fmt.Errorf("id, field, and value are required")
	}

	reg, err := registry.Load(*path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	found := false
	for i := range reg.Workers {
		if reg.Workers[i].ID != *id {
			continue
		}
		found = true
		switch *field {
		case "displayName":
			reg.Workers[i].DisplayName = *value
		case "description":
			reg.Workers[i].Description = *value
		case "category":
			reg.Workers[i].Category = *value
		case "taskType":
			reg.Workers[i].TaskType = *value
		case "version":
			reg.Workers[i].Version = *value
		case "timeout":
			reg.Workers[i].Timeout = *value
		case "retries":
			var retries int
			if _, err := fmt.Sscanf(*value, "%d", &retries); err != nil {
				return fmt.Errorf("invalid retries value %q", *value)
			}
			reg.Workers[i].Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", *field)
		}
		break
	}
	if !found {
		return fmt.Errorf("worker %s not found", *id)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Updated worker %s: %s = %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.Load(*path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d workers.\n", len(reg.Workers))
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.Load(*path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	for _, w := range reg.Workers {
		fmt.Printf("%-30s %-15s %s\n", w.TaskType, w.Category, w.DisplayName)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add       Add a worker to the registry
  update    Update a field on an existing worker
  validate  Validate the registry file
  list      List registered workers
  help      Show this help message

Examples:
  registry-updater add -id check-eligibility -displayName "Check Eligibility" -category loan -taskType check-eligibility
  registry-updater update -id check-eligibility -field timeout -value 15s
  registry-updater validate -path configs/worker-registry.json
`)
}
