package devbackend

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/futurecareers/contestide/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed testdata/default.yaml
var defaultFixture []byte

// Fixture is the seed data of a dev backend.
type Fixture struct {
	// Tokens accepted as bearer credentials. Empty accepts any token.
	Tokens   []string         `yaml:"tokens,omitempty"`
	Contests []FixtureContest `yaml:"contests"`
}

// FixtureContest is one requisition with its tasks.
type FixtureContest struct {
	ID      string                  `yaml:"id"`
	Vacancy models.Vacancy          `yaml:"vacancy"`
	Survey  []models.SurveyQuestion `yaml:"survey,omitempty"`
	Tasks   []FixtureTask           `yaml:"tasks"`
}

// FixtureTask is a task plus the server-only data the client never sees
// through the task endpoints.
type FixtureTask struct {
	models.Task `yaml:",inline"`

	HiddenTests []models.TestCase          `yaml:"hidden_tests,omitempty"`
	Hints       map[models.HintTier]string `yaml:"hints,omitempty"`
	// Question opens a clarification thread after an accepted submit.
	Question string `yaml:"question,omitempty"`
	// AcceptMarker, when set, must appear in the source for a submit to pass.
	AcceptMarker string `yaml:"accept_marker,omitempty"`
	// LastSolution seeds the server copy of the solution.
	LastSolution string `yaml:"last_solution,omitempty"`
}

// DefaultFixture returns the built-in two-task contest.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks a fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if len(f.Contests) == 0 {
		return fmt.Errorf("fixture has no contests")
	}
	seen := make(map[string]string)
	for _, c := range f.Contests {
		if c.ID == "" {
			return fmt.Errorf("fixture contest without id")
		}
		for _, t := range c.Tasks {
			if t.ID == "" {
				return fmt.Errorf("contest %s: task without id", c.ID)
			}
			if other, ok := seen[t.ID]; ok {
				return fmt.Errorf("task %s appears in contests %s and %s", t.ID, other, c.ID)
			}
			seen[t.ID] = c.ID
			for tier := range t.Hints {
				if !tier.Valid() {
					return fmt.Errorf("task %s: unknown hint tier %q", t.ID, tier)
				}
			}
		}
	}
	return nil
}
