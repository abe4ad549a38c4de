package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cogengine/internal/services"
	"cogengine/internal/task"
)

// DefaultWorkflowName is used when a definition does not declare a name.
const DefaultWorkflowName = "Unnamed Workflow"

// Definition is a parsed workflow file. It is immutable once loaded.
type Definition struct {
	Name        string
	Description string
	Path        string
	Steps       []Step
}

// Step is one entry of a workflow definition.
type Step struct {
	Index   int
	ID      string
	Type    string
	Config  task.Params
	Timeout time.Duration
}

type rawDefinition struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       *[]rawStep `yaml:"steps"`
}

type rawStep struct {
	ID      string    `yaml:"id"`
	Type    string    `yaml:"type"`
	Config  yaml.Node `yaml:"config"`
	Timeout string    `yaml:"timeout"`
}

// LoadDefinition reads and parses the workflow file at path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "load", fmt.Sprintf("workflow file not found: %s", path), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "load", fmt.Sprintf("read %s", path), err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	def.Path = path
	return def, nil
}

// ParseDefinition parses a YAML workflow document.
func ParseDefinition(data []byte) (*Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "parse", "invalid workflow YAML", err)
	}
	if raw.Steps == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "parse", "workflow has no steps list", nil)
	}

	def := &Definition{
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		Steps:       make([]Step, 0, len(*raw.Steps)),
	}
	if def.Name == "" {
		def.Name = DefaultWorkflowName
	}

	for idx, rs := range *raw.Steps {
		step, err := buildStep(idx, rs)
		if err != nil {
			return nil, err
		}
		def.Steps = append(def.Steps, step)
	}
	return def, nil
}

func buildStep(idx int, rs rawStep) (Step, error) {
	step := Step{
		Index:  idx,
		ID:     strings.TrimSpace(rs.ID),
		Type:   strings.TrimSpace(rs.Type),
		Config: task.Params{},
	}
	if step.ID == "" {
		step.ID = fmt.Sprintf("step_%d", idx)
	}
	if step.Type == "" {
		return Step{}, services.Wrap(services.ErrConfiguration, "workflow", "parse", fmt.Sprintf("step %d (%s) has no type", idx, step.ID), nil)
	}

	if !rs.Config.IsZero() {
		var config map[string]any
		if err := rs.Config.Decode(&config); err != nil {
			return Step{}, services.Wrap(services.ErrConfiguration, "workflow", "parse", fmt.Sprintf("step %s config must be a mapping", step.ID), err)
		}
		if config != nil {
			step.Config = task.Params(config)
		}
	}

	if timeout := strings.TrimSpace(rs.Timeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d < 0 {
			return Step{}, services.Wrap(services.ErrConfiguration, "workflow", "parse", fmt.Sprintf("step %s has invalid timeout %q", step.ID, timeout), err)
		}
		step.Timeout = d
	}
	return step, nil
}

// Label renders the step for logs and tables: "2/5 split (TextFileSplitterTask)".
func (s Step) Label(total int) string {
	return fmt.Sprintf("%d/%d %s (%s)", s.Index+1, total, s.ID, s.Type)
}

// TaskTypes returns the distinct task types used by the definition, in step order.
func (d *Definition) TaskTypes() []string {
	seen := make(map[string]struct{}, len(d.Steps))
	var out []string
	for _, step := range d.Steps {
		if _, ok := seen[step.Type]; ok {
			continue
		}
		seen[step.Type] = struct{}{}
		out = append(out, step.Type)
	}
	return out
}

// CheckTypes reports every step whose type is not registered. The engine does
// not call this; unknown types only fail when their step is reached.
func (d *Definition) CheckTypes(reg *task.Registry) error {
	var errs []error
	for _, step := range d.Steps {
		if _, err := reg.Resolve(step.Type); err != nil {
			errs = append(errs, &StepError{Index: step.Index, ID: step.ID, Type: step.Type, Err: err})
		}
	}
	return errors.Join(errs...)
}
