package cipher

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parameters arrive from JSON bodies, recipe files and CLI flags, so each
// helper accepts both native values and their string forms.

func stringParam(params map[string]any, key, def string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", key, raw)
	}
	return s, nil
}

func boolParam(params map[string]any, key string, def bool) (bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("parameter %s: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("parameter %s must be a boolean, got %T", key, raw)
	}
}

func intParam(params map[string]any, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("parameter %s must be an integer, got %v", key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s must be an integer, got %T", key, raw)
	}
}

func letterParam(params map[string]any, key string, def rune) (rune, error) {
	s, err := stringParam(params, key, "")
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	runes := []rune(strings.ToUpper(strings.TrimSpace(s)))
	if len(runes) != 1 {
		return 0, fmt.Errorf("parameter %s must be a single letter, got %q", key, s)
	}
	return runes[0], nil
}

// rowsParam reads a key square as a list of rows. A single string may hold
// the rows separated by spaces, commas or slashes. A missing parameter
// yields nil.
func rowsParam(params map[string]any, key string) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		rows := make([]string, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s row %d must be a string, got %T", key, i, elem)
			}
			rows[i] = s
		}
		return rows, nil
	case string:
		return strings.FieldsFunc(v, func(r rune) bool {
			return r == ' ' || r == ',' || r == '/' || r == '\n' || r == '\t'
		}), nil
	default:
		return nil, fmt.Errorf("parameter %s must be a list of rows, got %T", key, raw)
	}
}
