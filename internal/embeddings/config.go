package embeddings

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Config is the loosely-typed provider configuration handed to NewProvider.
// Values are strings, numbers, booleans or nil, as produced by YAML or JSON decoders.
//
// The Take accessors remove the key they read, so whatever is left after a provider
// has pulled its settings is, by construction, unrecognized.
type Config map[string]interface{}

// Clone returns a shallow copy, for callers that need to keep their map intact.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}

	return maps.Clone(c)
}

// Keys returns the keys still present, sorted.
func (c Config) Keys() []string {
	keys := lo.Keys(map[string]interface{}(c))
	sort.Strings(keys)

	return keys
}

func (c Config) take(key string) (interface{}, bool) {
	value, ok := c[key]
	if ok {
		delete(c, key)
	}

	return value, ok
}

// TakeString consumes key as a string. Non-string values are stringified; a missing
// or nil value yields def.
func (c Config) TakeString(key, def string) string {
	value, ok := c.take(key)
	if !ok || value == nil {
		return def
	}

	return stringify(value)
}

// TakeOptionalString consumes key as a string. The second result is false when the
// key is missing or nil.
func (c Config) TakeOptionalString(key string) (string, bool) {
	value, ok := c.take(key)
	if !ok || value == nil {
		return "", false
	}

	return stringify(value), true
}

// TakeOptionalFloat consumes key as a float64. Numbers convert directly and strings are
// parsed as written, surrounding whitespace included; any other type, or an unparseable
// string, is a validation error.
func (c Config) TakeOptionalFloat(key string) (*float64, error) {
	value, ok := c.take(key)
	if !ok || value == nil {
		return nil, nil
	}

	if s, isString := value.(string); isString {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, validationErrorf("invalid float value for key '%s': %q", key, s)
		}

		return &f, nil
	}

	f, isNumber, err := toFloat(value)
	if !isNumber {
		return nil, validationErrorf("invalid value type for key '%s', expected float, got %T", key, value)
	}

	if err != nil {
		return nil, validationErrorf("invalid numeric value for key '%s': %v", key, err)
	}

	return &f, nil
}

// TakeBool consumes key as a bool. Strings are true when they read "true", "1" or "yes"
// (any case) and numbers are true when nonzero. A missing or nil value yields def.
func (c Config) TakeBool(key string, def bool) (bool, error) {
	value, ok := c.take(key)
	if !ok || value == nil {
		return def, nil
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true, nil
		default:
			return false, nil
		}
	}

	f, isNumber, err := toFloat(value)
	if !isNumber {
		return false, validationErrorf("invalid value type for key '%s', expected bool, got %T", key, value)
	}

	if err != nil {
		return false, validationErrorf("invalid numeric value for key '%s': %v", key, err)
	}

	return f != 0, nil
}

// toFloat converts Go numeric kinds and json.Number. The second result reports whether
// value was numeric at all.
func toFloat(value interface{}) (float64, bool, error) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()

		return f, true, err
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		f, err := cast.ToFloat64E(v)

		return f, true, err
	default:
		return 0, false, nil
	}
}

func stringify(value interface{}) string {
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}

	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}

	return fmt.Sprint(value)
}
