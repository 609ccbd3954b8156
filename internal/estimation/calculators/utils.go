package calculators

import (
	"fmt"

	"github.com/kubev2v/migration-wave-planner/internal/estimation"
)

func getInt(p estimation.Param) (int, error) {
	switch v := p.Value.(type) {
	case float64:
		return int(v), nil // JSON default
	case int:
		return v, nil // Direct struct usage or YAML (sometimes)
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("param %s is not a number (type: %T)", p.Key, p.Value)
	}
}

func getFloat(p estimation.Param) (float64, error) {
	switch v := p.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0.0, fmt.Errorf("param %s is not a number (type: %T)", p.Key, p.Value)
	}
}

// requireFloat reads a mandatory numeric param.
func requireFloat(params map[string]estimation.Param, key string) (float64, error) {
	p, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	return getFloat(p)
}

// requireInt reads a mandatory integer param.
func requireInt(params map[string]estimation.Param, key string) (int, error) {
	p, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	return getInt(p)
}

// optionalFloat reads a numeric param and falls back to def when it is absent.
func optionalFloat(params map[string]estimation.Param, key string, def float64) (float64, error) {
	p, ok := params[key]
	if !ok {
		return def, nil
	}
	return getFloat(p)
}

// optionalInt reads an integer param and falls back to def when it is absent.
func optionalInt(params map[string]estimation.Param, key string, def int) (int, error) {
	p, ok := params[key]
	if !ok {
		return def, nil
	}
	return getInt(p)
}
