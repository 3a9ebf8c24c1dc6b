// Package fixtures loads golden control-plane transcripts for tests, the
// same way the original SDK's skill definitions load their YAML frontmatter
// into a typed struct.
package fixtures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one named exchange between the SDK and the CLI: a sequence of
// raw newline-JSON envelopes, tagged with which side wrote them.
type Scenario struct {
	Name      string `yaml:"name"`
	Envelopes []struct {
		Direction string `yaml:"direction"` // "to_cli" or "from_cli"
		JSON      string `yaml:"json"`
	} `yaml:"envelopes"`
}

// File is the top-level shape of a golden transcript file.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load reads and parses a golden transcript file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return &f, nil
}

// Scenario looks up a named scenario, returning ok=false if absent.
func (f *File) Scenario(name string) (Scenario, bool) {
	for _, s := range f.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// ToCLI returns the envelopes in this scenario written in the to_cli
// direction, in order.
func (s Scenario) ToCLI() []string {
	return s.byDirection("to_cli")
}

// FromCLI returns the envelopes in this scenario written in the from_cli
// direction, in order.
func (s Scenario) FromCLI() []string {
	return s.byDirection("from_cli")
}

func (s Scenario) byDirection(dir string) []string {
	out := make([]string, 0, len(s.Envelopes))
	for _, e := range s.Envelopes {
		if e.Direction == dir {
			out = append(out, e.JSON)
		}
	}
	return out
}
