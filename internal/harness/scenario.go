package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eventchain/internal/schema"
)

// Scenario defines an end-to-end storage scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project lists the projected field names the store is opened with.
	Project []string `yaml:"project"`

	// Deliveries are applied in order.
	Deliveries []Step `yaml:"deliveries"`

	// Assertions validate the final tables.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is either a delivery (Type and Tx) or a projection change (Resync).
type Step struct {
	// Type is the delivery category, e.g. ONMEMPOOL or ONBLOCK.
	Type string `yaml:"type,omitempty"`

	// Tx is one transaction (a mapping) or a block batch (a list).
	Tx any `yaml:"tx,omitempty"`

	// Resync replaces the projection before the next delivery.
	Resync []string `yaml:"resync,omitempty"`
}

// envelope renders the step in the wire shape sources receive.
func (s Step) envelope() ([]byte, error) {
	return json.Marshal(map[string]any{"type": s.Type, "tx": s.Tx})
}

// Assertion validates the final table contents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "row_count": Table holds exactly Count rows
	// - "row": A row matching Where carries the Expect values (~ for NULL)
	// - "columns": Table has every column in Columns
	// - "no_column": Table has none of the columns in Columns
	Type string `yaml:"type"`

	Table string `yaml:"table"`

	// Count is the expected number of rows (used by row_count).
	Count int `yaml:"count,omitempty"`

	// Where selects a row by exact column values (used by row).
	Where map[string]string `yaml:"where,omitempty"`

	// Expect contains expected column values (used by row).
	// A nil value expects NULL.
	Expect map[string]*string `yaml:"expect,omitempty"`

	// Columns lists column names (used by columns and no_column).
	Columns []string `yaml:"columns,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount = "row_count"
	AssertRow      = "row"
	AssertColumns  = "columns"
	AssertNoColumn = "no_column"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Project) == 0 {
		return fmt.Errorf("project list is required and must be non-empty")
	}

	if len(s.Deliveries) == 0 {
		return fmt.Errorf("deliveries list is required and must be non-empty")
	}

	for i, step := range s.Deliveries {
		isDelivery := step.Type != "" || step.Tx != nil
		switch {
		case isDelivery && len(step.Resync) > 0:
			return fmt.Errorf("deliveries[%d]: a step is either a delivery or a resync", i)
		case isDelivery && step.Tx == nil:
			return fmt.Errorf("deliveries[%d]: tx is required", i)
		case !isDelivery && len(step.Resync) == 0:
			return fmt.Errorf("deliveries[%d]: type and tx, or resync, is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !slices.Contains(schema.Tables, a.Table) {
		return fmt.Errorf("assertions[%d]: table must be one of %v, got %q", index, schema.Tables, a.Table)
	}

	switch a.Type {
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must not be negative", index)
		}
	case AssertRow:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for row", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for row", index)
		}
	case AssertColumns, AssertNoColumn:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns list is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
