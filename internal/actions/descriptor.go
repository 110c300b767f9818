package actions

import "fmt"

// ParamType is the type of an action parameter as presented to the model.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeNumber ParamType = "number"
	TypeEnum   ParamType = "enum"
)

// jsonType maps a parameter type to its JSON Schema type.
func (t ParamType) jsonType() (string, error) {
	switch t {
	case TypeString, TypeEnum:
		return "string", nil
	case TypeNumber:
		return "number", nil
	default:
		return "", fmt.Errorf("%w: unsupported parameter type %q", ErrStaticConfiguration, string(t))
	}
}

// Descriptor is the calling convention of one action.
type Descriptor struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  []ParameterDescriptor `json:"parameters"`
}

// ParameterDescriptor describes one argument of an action.
type ParameterDescriptor struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Enum        []string  `json:"enum,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
	Examples    []string  `json:"examples,omitempty"`
}

// JSONSchema returns the parameter object of the descriptor.
func (d Descriptor) JSONSchema() map[string]any {
	properties := make(map[string]any, len(d.Parameters))
	required := []string{}

	for _, p := range d.Parameters {
		// Types are checked when the registry is built
		jt, _ := p.Type.jsonType()
		prop := map[string]any{
			"type":        jt,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Pattern != "" {
			prop["pattern"] = p.Pattern
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Parameter returns the named parameter descriptor.
func (d Descriptor) Parameter(name string) (ParameterDescriptor, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterDescriptor{}, false
}
