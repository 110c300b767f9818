package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// RejectError carries the prose returned to the model when an action is rejected.
type RejectError struct {
	Text string
	Kind error
}

func (e *RejectError) Error() string { return e.Text }

func (e *RejectError) Unwrap() error { return e.Kind }

func reject(kind error, format string, args ...any) error {
	return &RejectError{Text: fmt.Sprintf(format, args...), Kind: kind}
}

// validate checks raw model arguments against the action declaration and
// returns them coerced to their declared types, defaults filled in.
// The coerced values and any undeclared argument then go through the
// compiled schema, which rejects undeclared arguments and pattern mismatches.
func (e *entry) validate(raw map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(e.action.Params))
	var problems []string

	for _, p := range e.action.Params {
		value, ok := raw[p.Name]
		if !ok || value == nil {
			if p.Required() {
				problems = append(problems, fmt.Sprintf("%s is required", p.Name))
				continue
			}
			value = p.Default
		}

		coerced, err := coerce(p, value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %v", p.Name, err))
			continue
		}
		args[p.Name] = coerced
	}

	if len(problems) == 0 {
		doc := maps.Clone(args)
		for k, v := range raw {
			if _, declared := doc[k]; !declared {
				doc[k] = v
			}
		}
		if err := e.checkSchema(doc); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, reject(ErrInvalidArguments, "Invalid arguments for %s: %s", e.action.Name, strings.Join(problems, "; "))
	}
	return args, nil
}

func (e *entry) checkSchema(args map[string]any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments are not serializable: %v", err)
	}
	result := e.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}

	keys := make([]string, 0, len(result.Errors))
	for k := range result.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %v", k, result.Errors[k]))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// coerce converts a loosely typed model value to the declared parameter type.
func coerce(p Param, value any) (any, error) {
	switch p.Type {
	case TypeString:
		return coerceString(value)

	case TypeNumber:
		return coerceNumber(value)

	case TypeEnum:
		s, err := coerceString(value)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if !slices.Contains(p.Enum, s) {
			return nil, fmt.Errorf("must be one of %s, got %q", strings.Join(p.Enum, ", "), s)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: unsupported parameter type %q", ErrStaticConfiguration, string(p.Type))
	}
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("must be a string, got %T", value)
	}
}

func coerceNumber(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", v.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("must be a number, got %T", value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	return f, nil
}
