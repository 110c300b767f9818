package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/kaptinlin/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/avvvet/voicebuddy-actions/internal/models"
	"github.com/avvvet/voicebuddy-actions/internal/prompts"
)

// Param declares one argument of an action.
type Param struct {
	Name    string
	Type    ParamType
	Doc     prompts.Doc
	Enum    []string // Allowed literals, TypeEnum only
	Pattern string   // Regular expression the value must match, string types only
	Default any      // nil makes the parameter required
}

// Required reports whether the model must supply the parameter.
func (p Param) Required() bool {
	return p.Default == nil
}

// RunFunc executes an action body on validated arguments.
type RunFunc func(ctx context.Context, call *models.CallState, fx SideEffects, args map[string]any) (string, error)

// Action is a named operation the model may request.
type Action struct {
	Name     string
	Doc      prompts.Doc
	Params   []Param
	ReadOnly bool // Does not change the call, skips confirmation and persistence
	Run      RunFunc
}

// Define builds an action whose arguments are decoded into A.
// A uses mapstructure tags matching the parameter names.
func Define[A any](a Action, run func(ctx context.Context, call *models.CallState, fx SideEffects, args A) (string, error)) Action {
	a.Run = func(ctx context.Context, call *models.CallState, fx SideEffects, raw map[string]any) (string, error) {
		var args A
		if err := mapstructure.Decode(raw, &args); err != nil {
			return "", reject(ErrInvalidArguments, "Invalid arguments for %s: %v", a.Name, err)
		}
		return run(ctx, call, fx, args)
	}
	return a
}

type entry struct {
	action Action
	schema *jsonschema.Schema
}

// Registry is the static set of actions exposed to the model.
type Registry struct {
	entries map[string]*entry
	names   []string // Sorted
}

// NewRegistry checks every declaration and compiles its argument schema.
// Any error wraps ErrStaticConfiguration.
func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*entry, len(actions)),
	}
	compiler := jsonschema.NewCompiler()

	for _, a := range actions {
		if err := checkAction(a); err != nil {
			return nil, err
		}
		if _, exists := r.entries[a.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate action %s", ErrStaticConfiguration, a.Name)
		}

		data, err := json.Marshal(constraints(a).JSONSchema())
		if err != nil {
			return nil, fmt.Errorf("%w: marshal schema %s: %v", ErrStaticConfiguration, a.Name, err)
		}
		schema, err := compiler.Compile(data)
		if err != nil {
			return nil, fmt.Errorf("%w: compile schema %s: %v", ErrStaticConfiguration, a.Name, err)
		}

		r.entries[a.Name] = &entry{action: a, schema: schema}
		r.names = append(r.names, a.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Names returns the action names in lexicographic order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.names)
}

// Action returns the named action.
func (r *Registry) Action(name string) (Action, bool) {
	e, ok := r.entries[name]
	if !ok {
		return Action{}, false
	}
	return e.action, true
}

func checkAction(a Action) error {
	if a.Name == "" {
		return fmt.Errorf("%w: action without name", ErrStaticConfiguration)
	}
	if a.Run == nil {
		return fmt.Errorf("%w: action %s has no body", ErrStaticConfiguration, a.Name)
	}
	if err := a.Doc.Check(a.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrStaticConfiguration, err)
	}

	seen := make(map[string]bool, len(a.Params))
	for _, p := range a.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: action %s has a parameter without name", ErrStaticConfiguration, a.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: action %s declares %s twice", ErrStaticConfiguration, a.Name, p.Name)
		}
		seen[p.Name] = true

		if _, err := p.Type.jsonType(); err != nil {
			return fmt.Errorf("action %s parameter %s: %w", a.Name, p.Name, err)
		}
		if p.Type == TypeEnum && len(p.Enum) == 0 {
			return fmt.Errorf("%w: action %s parameter %s is an enum without values", ErrStaticConfiguration, a.Name, p.Name)
		}
		if p.Pattern != "" {
			if p.Type == TypeNumber {
				return fmt.Errorf("%w: action %s parameter %s has a pattern but is a number", ErrStaticConfiguration, a.Name, p.Name)
			}
			if _, err := regexp.Compile(p.Pattern); err != nil {
				return fmt.Errorf("%w: action %s parameter %s pattern: %v", ErrStaticConfiguration, a.Name, p.Name, err)
			}
		}
		if p.Default != nil {
			if _, err := coerce(p, p.Default); err != nil {
				return fmt.Errorf("%w: action %s parameter %s default: %v", ErrStaticConfiguration, a.Name, p.Name, err)
			}
		}
		if err := p.Doc.Check(a.Name + "." + p.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrStaticConfiguration, err)
		}
	}
	return nil
}

// constraints is the descriptor without prose, used to compile the validator.
func constraints(a Action) Descriptor {
	d := Descriptor{Name: a.Name}
	for _, p := range a.Params {
		d.Parameters = append(d.Parameters, ParameterDescriptor{
			Name:     p.Name,
			Type:     p.Type,
			Required: p.Required(),
			Enum:     p.Enum,
			Pattern:  p.Pattern,
		})
	}
	return d
}
