package fluxes

import (
	"github.com/klimalab/ebmsim/internal/ebm"
)

// Params is the arbitrary key/value parameter set of one function spec,
// as parsed from the configuration document. Getters convert the loosely
// typed values and fail fast with configuration errors.
type Params map[string]any

func (p Params) has(key string) bool {
	_, ok := p[key]
	return ok
}

// Float returns a required numeric parameter.
func (p Params) Float(fn, key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, ebm.Configf(fn+"."+key, "required parameter missing")
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, ebm.Configf(fn+"."+key, "expected number, got %T", v)
	}
	return f, nil
}

// FloatDef returns a numeric parameter or def when absent.
func (p Params) FloatDef(fn, key string, def float64) (float64, error) {
	if !p.has(key) {
		return def, nil
	}
	return p.Float(fn, key)
}

// IntDef returns an integer parameter or def when absent.
func (p Params) IntDef(fn, key string, def int) (int, error) {
	if !p.has(key) {
		return def, nil
	}
	f, err := p.Float(fn, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// BoolDef returns a boolean parameter or def when absent.
func (p Params) BoolDef(fn, key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, ebm.Configf(fn+"."+key, "expected bool, got %T", v)
	}
	return b, nil
}

// StrDef returns a string parameter or def when absent.
func (p Params) StrDef(fn, key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ebm.Configf(fn+"."+key, "expected string, got %T", v)
	}
	return s, nil
}

// Str returns a required string parameter.
func (p Params) Str(fn, key string) (string, error) {
	if !p.has(key) {
		return "", ebm.Configf(fn+"."+key, "required parameter missing")
	}
	return p.StrDef(fn, key, "")
}

// Floats returns a required numeric-list parameter with exactly want
// elements (the grid shape check of spec'd distributions). want < 0
// skips the length check.
func (p Params) Floats(fn, key string, want int) ([]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, ebm.Configf(fn+"."+key, "required parameter missing")
	}
	list, ok := v.([]any)
	if !ok {
		return nil, ebm.Configf(fn+"."+key, "expected list of numbers, got %T", v)
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := toFloat(e)
		if !ok {
			return nil, ebm.Configf(fn+"."+key, "element %d: expected number, got %T", i, e)
		}
		out[i] = f
	}
	if want >= 0 && len(out) != want {
		return nil, ebm.Configf(fn+"."+key, "expected %d elements for this grid, got %d", want, len(out))
	}
	return out, nil
}

// Sub returns a nested parameter map (used for albedo sub-functions).
func (p Params) Sub(fn, key string) (Params, error) {
	v, ok := p[key]
	if !ok {
		return Params{}, nil
	}
	switch m := v.(type) {
	case map[string]any:
		return Params(m), nil
	case Params:
		return m, nil
	default:
		return nil, ebm.Configf(fn+"."+key, "expected mapping, got %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
