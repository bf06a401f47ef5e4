package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// CasesFile represents the structure of a case fixture file.
//
//	events:
//	  FILL_FORM:
//	    - label: short password
//	      payload: {username: janedoe, password: abc1234}
type CasesFile struct {
	Events map[string][]domain.Case `yaml:"events" json:"events"`
}

// LoadCases reads a fixture file (YAML, or JSON by extension) and returns the cases per event tag.
func LoadCases(path string) (map[string][]domain.Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases file: %w", err)
	}
	return ParseCases(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// ParseCases decodes fixture content. isJSON selects the JSON decoder, YAML otherwise.
func ParseCases(data []byte, isJSON bool) (map[string][]domain.Case, error) {
	var file CasesFile
	if isJSON {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse cases json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse cases yaml: %w", err)
		}
	}

	for tag, cases := range file.Events {
		for i, c := range cases {
			if c.Payload == nil {
				return nil, fmt.Errorf("event %s case %d: payload is required", tag, i+1)
			}
		}
	}
	return file.Events, nil
}
