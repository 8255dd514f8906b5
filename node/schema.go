package node

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	apperrors "github.com/kbukum/flowforge/errors"
)

// Kind is the expected type of a configuration value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStringList
	KindObject
	KindObjectList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	case KindStringList:
		return "list of strings"
	case KindObject:
		return "object"
	case KindObjectList:
		return "list of objects"
	}
	return "unknown"
}

// Field declares one configuration key of a node type.
type Field struct {
	Key         string
	Kind        Kind
	Label       string
	Required    bool
	Default     any
	Placeholder string
	// Options restricts a string value to a fixed set, matched case-insensitively.
	Options []string
}

// Schema is the declared configuration of a node type.
type Schema []Field

// Field returns the declaration for key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Bind checks raw against the schema and returns typed values. Missing
// optional keys take their default. Keys not declared in the schema pass
// through unchanged. The error, if any, is a NODE_CONFIGURATION error that
// names every violated key.
func (s Schema) Bind(typeKey string, raw map[string]any) (Values, error) {
	values := make(map[string]any, len(raw)+len(s))
	for k, v := range raw {
		values[k] = v
	}

	violations := make(map[string]string)
	for _, f := range s {
		v, present := raw[f.Key]
		if present && isBlank(v) {
			present = false
		}

		if !present {
			delete(values, f.Key)
			if f.Required {
				violations[f.Key] = "is required"
				continue
			}
			if f.Default == nil {
				continue
			}
			v = f.Default
		}

		coerced, err := coerce(f.Kind, v)
		if err != nil {
			violations[f.Key] = "must be a " + f.Kind.String()
			continue
		}
		if len(f.Options) > 0 {
			canonical, ok := matchOption(f.Options, coerced)
			if !ok {
				violations[f.Key] = fmt.Sprintf("must be one of %s", strings.Join(f.Options, ", "))
				continue
			}
			coerced = canonical
		}
		values[f.Key] = coerced
	}

	if len(violations) > 0 {
		return Values{}, apperrors.NodeConfigurationKeys(typeKey, violations)
	}
	return Values{typeKey: typeKey, m: values}, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func matchOption(options []string, v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o, true
		}
	}
	return "", false
}

func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindString:
		return cast.ToStringE(v)
	case KindInt:
		if f, ok := v.(float64); ok && f != float64(int(f)) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		return cast.ToIntE(v)
	case KindFloat:
		return cast.ToFloat64E(v)
	case KindBool:
		return cast.ToBoolE(v)
	case KindStringList:
		if s, ok := v.(string); ok {
			return splitList(s), nil
		}
		return cast.ToStringSliceE(v)
	case KindObject:
		return cast.ToStringMapE(v)
	case KindObjectList:
		items, err := cast.ToSliceE(v)
		if err != nil {
			if maps, ok := v.([]map[string]any); ok {
				out := make([]map[string]any, len(maps))
				copy(out, maps)
				return out, nil
			}
			return nil, err
		}
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			m, err := cast.ToStringMapE(item)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown kind %d", kind)
}

// splitList accepts comma, semicolon or newline separated entries.
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Values is bound node configuration. Declared keys hold the Go type of
// their Kind: string, int, float64, bool, []string, map[string]any or
// []map[string]any.
type Values struct {
	typeKey string
	m       map[string]any
}

// NewValues wraps an already-typed map. Intended for tests and for nodes
// configured outside a registry.
func NewValues(m map[string]any) Values {
	return Values{m: m}
}

// TypeKey is the node type the values were bound for.
func (v Values) TypeKey() string { return v.typeKey }

// Has reports whether key holds a value.
func (v Values) Has(key string) bool {
	_, ok := v.m[key]
	return ok
}

// Raw returns the stored value for key.
func (v Values) Raw(key string) (any, bool) {
	val, ok := v.m[key]
	return val, ok
}

// String returns key as a string, or "" when unset.
func (v Values) String(key string) string {
	return cast.ToString(v.m[key])
}

// Int returns key as an int, or 0 when unset.
func (v Values) Int(key string) int {
	return cast.ToInt(v.m[key])
}

// Float returns key as a float64, or 0 when unset.
func (v Values) Float(key string) float64 {
	return cast.ToFloat64(v.m[key])
}

// Bool returns key as a bool, or false when unset.
func (v Values) Bool(key string) bool {
	return cast.ToBool(v.m[key])
}

// StringList returns key as a []string, or nil when unset.
func (v Values) StringList(key string) []string {
	val, ok := v.m[key]
	if !ok {
		return nil
	}
	if s, ok := val.(string); ok {
		return splitList(s)
	}
	return cast.ToStringSlice(val)
}

// Decode decodes key into out, which must be a pointer. Struct fields are
// matched by their mapstructure tag, case-insensitively.
func (v Values) Decode(key string, out any) error {
	val, ok := v.m[key]
	if !ok {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(val); err != nil {
		return apperrors.NodeConfiguration(v.typeKey, key, "could not be decoded").WithCause(err)
	}
	return nil
}
