package onboarding

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	ActionContinue = "continue"
	ActionNavigate = "navigate"
)

type PromptAction struct {
	Kind   string `json:"kind" yaml:"kind"`
	Target string `json:"target,omitempty" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

// Prompt is a single guidance message bound to a stage. Non-dismissible
// prompts can only be cleared by their acknowledgement event.
type Prompt struct {
	ID          string       `json:"id" yaml:"id"`
	Message     string       `json:"message" yaml:"message"`
	Secondary   string       `json:"secondary,omitempty" yaml:"secondary"`
	Action      PromptAction `json:"action" yaml:"action"`
	Dismissible bool         `json:"dismissible" yaml:"dismissible"`
}

// Catalog is the immutable stage-to-prompt table plus the valid diagnostic
// subject set. Loaded once at process start; reads need no synchronization.
type Catalog struct {
	byStage  map[Stage]*Prompt
	byID     map[string]*Prompt
	subjects map[string]struct{}
}

type catalogFile struct {
	Subjects []string          `yaml:"subjects"`
	Prompts  map[string]Prompt `yaml:"prompts"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog, parsing it on first use. The
// embedded file is validated at startup, so a failure here is a build
// defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded prompt catalog invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Subjects) == 0 {
		return nil, fmt.Errorf("catalog has no subjects")
	}

	c := &Catalog{
		byStage:  make(map[Stage]*Prompt, len(file.Prompts)),
		byID:     make(map[string]*Prompt, len(file.Prompts)),
		subjects: make(map[string]struct{}, len(file.Subjects)),
	}
	for _, s := range file.Subjects {
		c.subjects[s] = struct{}{}
	}

	for stageName, entry := range file.Prompts {
		stage := Stage(stageName)
		if stage.Rank() < 0 {
			return nil, fmt.Errorf("catalog entry for unknown stage %q", stageName)
		}
		if stage.Terminal() {
			return nil, fmt.Errorf("terminal stage %q must not have a prompt", stageName)
		}
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog entry for stage %q has no id", stageName)
		}
		if entry.Action.Kind != ActionContinue && entry.Action.Kind != ActionNavigate {
			return nil, fmt.Errorf("prompt %q has invalid action kind %q", entry.ID, entry.Action.Kind)
		}
		if _, dup := c.byID[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate prompt id %q", entry.ID)
		}
		p := entry
		c.byStage[stage] = &p
		c.byID[entry.ID] = &p
	}

	for _, stage := range stageOrder {
		if stage.Terminal() {
			continue
		}
		if _, ok := c.byStage[stage]; !ok {
			return nil, fmt.Errorf("no catalog entry for stage %q", stage)
		}
	}

	// The welcome prompt is mandatory: every user sees it at least once and
	// only acknowledgement clears it.
	if welcome := c.byStage[StageWelcome]; welcome.Dismissible {
		return nil, fmt.Errorf("welcome prompt must not be dismissible")
	}

	return c, nil
}

// SelectPrompt returns the prompt to surface for stage, or nil. A dismissed
// prompt never resurfaces for its stage; non-dismissible prompts ignore
// dismissal records entirely.
func (c *Catalog) SelectPrompt(stage Stage, f Facts) *Prompt {
	p, ok := c.byStage[stage]
	if !ok {
		return nil
	}
	if !p.Dismissible {
		return p
	}
	if _, dismissed := f.DismissedPrompts[p.ID]; dismissed {
		return nil
	}
	return p
}

// PromptForStage returns the catalog entry for stage regardless of
// dismissal state.
func (c *Catalog) PromptForStage(stage Stage) *Prompt {
	return c.byStage[stage]
}

// Lookup returns the catalog entry with the given prompt id.
func (c *Catalog) Lookup(promptID string) (*Prompt, bool) {
	p, ok := c.byID[promptID]
	return p, ok
}

func (c *Catalog) ValidSubject(subject string) bool {
	_, ok := c.subjects[subject]
	return ok
}

func (c *Catalog) Subjects() []string {
	out := make([]string, 0, len(c.subjects))
	for s := range c.subjects {
		out = append(out, s)
	}
	return out
}
