package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// Scenario is one scripted match.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Mode scoring.Mode `yaml:"mode"`

	// Servers is the short-format rotation. Standard matches may omit it.
	Servers []string `yaml:"servers,omitempty"`

	// Points lists the winner of each point in order.
	Points Points `yaml:"points"`

	// Expect is checked against the final state. Nil means only the trace
	// is of interest.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Points is a sequence of point winners.
//
// In YAML it is written either as a single string ("AABB A") or as a list of
// strings, one per game or rally group.
type Points []scoring.Team

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (p *Points) UnmarshalYAML(node *yaml.Node) error {
	var out Points
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := ParsePoints(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		out = parsed
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: points entries must be strings", item.Line)
			}
			parsed, err := ParsePoints(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			out = append(out, parsed...)
		}
	default:
		return fmt.Errorf("line %d: points must be a string or a list of strings", node.Line)
	}
	*p = out
	return nil
}

// String renders the points back into the compact A/B form.
func (p Points) String() string {
	var b strings.Builder
	for _, t := range p {
		b.WriteString(string(t))
	}
	return b.String()
}

// ParsePoints converts a string of A and B into point winners. Whitespace
// is skipped.
func ParsePoints(s string) (Points, error) {
	var out Points
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		team, err := scoring.ParseTeam(string(r))
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", i, err)
		}
		out = append(out, team)
	}
	return out, nil
}

// Expect is the outcome a scenario asserts. Unset fields are not checked.
type Expect struct {
	Winner     scoring.Team `yaml:"winner,omitempty"`
	Completed  *bool        `yaml:"completed,omitempty"`
	Games      []int        `yaml:"games,omitempty"`
	Sets       []int        `yaml:"sets,omitempty"`
	CurrentSet int          `yaml:"current_set,omitempty"`
	Display    string       `yaml:"display,omitempty"`
	Server     string       `yaml:"server,omitempty"`
	Ignored    *int         `yaml:"ignored,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
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

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. A path naming a single file loads just that file.
func LoadScenarios(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenarios: %w", err)
	}
	if !info.IsDir() {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*Scenario{s}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)

	scenarios := make([]*Scenario, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		s, err := LoadScenario(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s",
				filepath.Base(file), s.Name, filepath.Base(prev))
		}
		seen[s.Name] = file
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("mode must be %q or %q, got %q", scoring.ModeStandard, scoring.ModeShort, s.Mode)
	}
	if s.Mode == scoring.ModeShort && len(s.Servers) != scoring.ShortFormatServers {
		return fmt.Errorf("short format requires %d servers, got %d", scoring.ShortFormatServers, len(s.Servers))
	}
	if len(s.Points) == 0 {
		return fmt.Errorf("points must be non-empty")
	}

	e := s.Expect
	if e == nil {
		return nil
	}
	if e.Winner != "" && !e.Winner.Valid() {
		return fmt.Errorf("expect.winner must be A or B, got %q", e.Winner)
	}
	if e.Games != nil && len(e.Games) != 2 {
		return fmt.Errorf("expect.games must have two entries")
	}
	if e.Sets != nil {
		if len(e.Sets) != 2 {
			return fmt.Errorf("expect.sets must have two entries")
		}
		if s.Mode == scoring.ModeShort {
			return fmt.Errorf("expect.sets does not apply to short format")
		}
	}
	if e.CurrentSet != 0 && s.Mode == scoring.ModeShort {
		return fmt.Errorf("expect.current_set does not apply to short format")
	}
	if e.Server != "" && s.Mode != scoring.ModeShort {
		return fmt.Errorf("expect.server only applies to short format")
	}
	if e.Ignored != nil && *e.Ignored < 0 {
		return fmt.Errorf("expect.ignored must be >= 0, got %d", *e.Ignored)
	}
	return nil
}
