// Package planfile reads and writes build plans as JSON or YAML files.
//
// The format is chosen by extension: .yaml and .yml use YAML, anything else JSON.
// YAML documents carry the same field names as the JSON form.
package planfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

var _ driven.PlanStore = (*Store)(nil)

// DefaultFileName is the plan file written into the output directory.
const DefaultFileName = "BuildPlan.json"

// Store is a file-backed plan store.
type Store struct{}

// NewStore creates a plan store.
func NewStore() *Store {
	return &Store{}
}

// IsYAML reports whether path selects the YAML encoding.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Save writes plan to path, creating parent directories.
func (s *Store) Save(plan *domain.BuildPlan, path string) error {
	if plan == nil {
		return fmt.Errorf("%w: nil plan", domain.ErrInvalidInput)
	}

	data, err := Encode(plan, IsYAML(path))
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create plan directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // plans are not secret
		return fmt.Errorf("write plan %s: %w", path, err)
	}
	return nil
}

// Load reads a plan from path.
func (s *Store) Load(path string) (*domain.BuildPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: plan file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	plan, err := Decode(data, IsYAML(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPlanInvalid, path, err)
	}
	return plan, nil
}

// Encode renders plan as indented JSON or as YAML.
func Encode(plan *domain.BuildPlan, asYAML bool) ([]byte, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, err
	}
	if !asYAML {
		return append(data, '\n'), nil
	}

	// Go through the generic form so the YAML keys match the JSON tags
	// and directory nodes keep their object-or-marker shape.
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

// Decode parses a plan from JSON or YAML.
func Decode(data []byte, asYAML bool) (*domain.BuildPlan, error) {
	if asYAML {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var plan domain.BuildPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
