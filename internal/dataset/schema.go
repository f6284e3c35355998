package dataset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema describes the expected shape of the raw dataset.
type Schema struct {
	// Columns maps column name to a declared type. Only presence is
	// enforced; types are informational.
	Columns map[string]string `yaml:"columns"`
	// Target names the column used as the regression target.
	Target string `yaml:"target"`
}

// LoadSchema reads a schema definition from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	var s Schema
	if err := yaml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("schema %s declares no columns", path)
	}

	return &s, nil
}

// Validate checks that every declared column is present in the frame.
// All missing columns are reported together.
func (s *Schema) Validate(f *Frame) error {
	var errs []error
	for name := range s.Columns {
		if _, ok := f.ColumnIndex(name); !ok {
			errs = append(errs, fmt.Errorf("column %q declared in schema is missing from dataset", name))
		}
	}
	if s.Target != "" {
		if _, ok := f.ColumnIndex(s.Target); !ok {
			errs = append(errs, fmt.Errorf("target column %q is missing from dataset", s.Target))
		}
	}
	return errors.Join(errs...)
}
