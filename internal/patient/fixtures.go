package patient

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FixtureFile is the YAML document read by LoadFixtures:
//
//	patients:
//	  - first_name: John
//	    last_name: Doe
//	    ...
type FixtureFile struct {
	Patients []Input `yaml:"patients"`
}

// LoadFixtures reads registration inputs from a YAML file.
// Unknown keys are rejected so that typos in column names surface early.
func LoadFixtures(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a fixture document. Every entry is validated; the
// first invalid entry fails the whole document.
func ParseFixtures(data []byte) ([]Input, error) {
	var file FixtureFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, in := range file.Patients {
		if err := Validate(in); err != nil {
			return nil, fmt.Errorf("patients[%d]: %w", i, err)
		}
	}
	return file.Patients, nil
}
