// Package chainfile loads chain definitions from YAML and compiles them into
// chain items.
package chainfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/maxkimambo/shellchain/internal/chain"
	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"gopkg.in/yaml.v3"
)

// Action is what a step does after its outcome hook ran.
type Action string

const (
	ActionContinue Action = "continue"
	ActionStop     Action = "stop"
)

// File is a chain definition.
type File struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	StepTimeout string            `yaml:"step_timeout,omitempty"`
	Steps       []Step            `yaml:"steps"`

	source string
}

// Step is one command of a chain definition.
type Step struct {
	Name    string `yaml:"name,omitempty"`
	Command string `yaml:"command"`
	// Placeholder in Command is replaced by the previous step's result
	// right before this step runs.
	Placeholder string `yaml:"placeholder,omitempty"`
	// ErrorPlaceholder is replaced by the previous step's error output.
	ErrorPlaceholder string `yaml:"error_placeholder,omitempty"`
	TrimPrefix       string `yaml:"trim_prefix,omitempty"`
	TrimSuffix       string `yaml:"trim_suffix,omitempty"`
	TrimSpace        bool   `yaml:"trim_space,omitempty"`
	OnSuccess        Action `yaml:"on_success,omitempty"`
	OnError          Action `yaml:"on_error,omitempty"`
}

// State exposes the values a running chain threads between steps.
type State interface {
	LastResult() string
	LastError() string
}

// Load reads and validates a chain definition from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chainerrors.NewChainFileError(chainerrors.CodeChainFileRead, path,
			"Cannot read chain file", err).
			WithTroubleshooting("Check that the file exists and is readable")
	}
	return Parse(data, path)
}

// Parse decodes and validates a chain definition. source names the input
// in error messages.
func Parse(data []byte, source string) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("document is empty")
		}
		return nil, chainerrors.NewChainFileError(chainerrors.CodeChainFileParse, source,
			"Cannot parse chain file", err).
			WithTroubleshooting(
				"Check the YAML syntax",
				"Only name, description, vars, step_timeout and steps are allowed at the top level",
			)
	}
	f.source = source

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the definition without compiling it.
func (f *File) Validate() error {
	var problems []string

	if len(f.Steps) == 0 {
		problems = append(problems, "at least one step is required")
	}
	if _, err := f.Timeout(); err != nil {
		problems = append(problems, err.Error())
	}

	seen := make(map[string]int)
	for i, step := range f.Steps {
		label := fmt.Sprintf("step %d", i)
		if step.Name != "" {
			label = fmt.Sprintf("step %d (%s)", i, step.Name)
			if prev, dup := seen[step.Name]; dup {
				problems = append(problems, fmt.Sprintf("%s: name already used by step %d", label, prev))
			}
			seen[step.Name] = i
		}
		if strings.TrimSpace(step.Command) == "" {
			problems = append(problems, fmt.Sprintf("%s: command is required", label))
		}
		if !validAction(step.OnSuccess) {
			problems = append(problems, fmt.Sprintf("%s: on_success must be %q or %q, got %q", label, ActionContinue, ActionStop, step.OnSuccess))
		}
		if !validAction(step.OnError) {
			problems = append(problems, fmt.Sprintf("%s: on_error must be %q or %q, got %q", label, ActionContinue, ActionStop, step.OnError))
		}
		if i == 0 && (step.Placeholder != "" || step.ErrorPlaceholder != "") {
			problems = append(problems, fmt.Sprintf("%s: the first step has no previous result to substitute", label))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	err := chainerrors.NewChainFileError(chainerrors.CodeChainFileInvalid, f.source,
		fmt.Sprintf("Chain file has %d problem(s)", len(problems)), nil)
	return err.WithTroubleshooting(problems...)
}

func validAction(a Action) bool {
	return a == "" || a == ActionContinue || a == ActionStop
}

// Timeout returns the parsed step_timeout, zero when unset.
func (f *File) Timeout() (time.Duration, error) {
	if f.StepTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("step_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("step_timeout: must not be negative")
	}
	return d, nil
}

// Items compiles the steps. Placeholders are resolved against state when
// each step is about to run; vars are expanded once, here.
func (f *File) Items(state State) ([]chain.Item, error) {
	items := make([]chain.Item, 0, len(f.Steps))
	for i, step := range f.Steps {
		command, err := f.expand(step.Command)
		if err != nil {
			return nil, chainerrors.NewChainFileError(chainerrors.CodeChainFileInvalid, f.source,
				fmt.Sprintf("Cannot expand vars in step %d", i), err).
				WithTroubleshooting("Reference vars as {{.name}} and define every name under vars")
		}
		items = append(items, step.item(command, state))
	}
	return items, nil
}

func (f *File) expand(command string) (string, error) {
	if !strings.Contains(command, "{{") {
		return command, nil
	}
	tmpl, err := template.New("command").Option("missingkey=error").Parse(command)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, f.Vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s Step) item(command string, state State) chain.Item {
	item := chain.NewItem(command).Named(s.Name)

	if s.Placeholder != "" || s.ErrorPlaceholder != "" {
		placeholder, errPlaceholder := s.Placeholder, s.ErrorPlaceholder
		item = item.Before(func(it *chain.Item) {
			if placeholder != "" {
				it.ReplaceInCommand(placeholder, state.LastResult())
			}
			if errPlaceholder != "" {
				it.ReplaceInCommand(errPlaceholder, state.LastError())
			}
		})
	}

	onSuccess := decision(s.OnSuccess, chain.Continue)
	onError := decision(s.OnError, chain.Stop)

	return item.
		OnSuccess(func(_ *chain.Item, result *string) chain.Decision {
			*result = s.clean(*result)
			return onSuccess
		}).
		OnError(func(_ *chain.Item, errOut *string) chain.Decision {
			if s.TrimSpace {
				*errOut = strings.TrimSpace(*errOut)
			}
			return onError
		})
}

// clean applies the trim rules to a step's result.
func (s Step) clean(result string) string {
	if s.TrimSpace {
		result = strings.TrimSpace(result)
	}
	if s.TrimPrefix != "" {
		result = strings.TrimPrefix(result, s.TrimPrefix)
	}
	if s.TrimSuffix != "" {
		result = strings.TrimSuffix(result, s.TrimSuffix)
	}
	if s.TrimSpace {
		result = strings.TrimSpace(result)
	}
	return result
}

func decision(a Action, fallback chain.Decision) chain.Decision {
	switch a {
	case ActionContinue:
		return chain.Continue
	case ActionStop:
		return chain.Stop
	default:
		return fallback
	}
}
