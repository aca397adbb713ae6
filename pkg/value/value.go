package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the discriminant of a Value.
type Kind uint8

const (
	// KindNumber holds a float64. It is the zero Kind, so the zero Value is
	// the number 0.
	KindNumber Kind = iota
	KindText
	KindBool
	KindArray
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the closed sum type carried by every variable.
// Exactly one payload is meaningful, selected by Kind.
//
// Values are treated as immutable. Array and Object payloads are copied on
// construction and on Clone so that callers cannot mutate a stored value
// through a retained slice or map.
type Value struct {
	kind Kind
	num  float64
	text string
	b    bool
	arr  []float64
	obj  map[string]Value
}

// Number returns a number value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Array returns an ordered sequence of numbers.
func Array(xs ...float64) Value {
	arr := make([]float64, len(xs))
	copy(arr, xs)
	return Value{kind: KindArray, arr: arr}
}

// Object returns a record of named fields.
func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v.Clone()
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind reports which payload is active.
func (v Value) Kind() Kind {
	return v.kind
}

// AsNumber returns the number payload.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsText returns the text payload.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == KindText
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsArray returns a copy of the array payload.
func (v Value) AsArray() ([]float64, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]float64, len(v.arr))
	copy(out, v.arr)
	return out, true
}

// AsObject returns a copy of the object payload.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	out := make(map[string]Value, len(v.obj))
	for k, f := range v.obj {
		out[k] = f.Clone()
	}
	return out, true
}

// Field returns a single field of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f.Clone(), ok
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		return Array(v.arr...)
	case KindObject:
		return Object(v.obj)
	default:
		return v
	}
}

// Equal reports whether v and other hold the same tag and structurally
// equal payloads.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindText:
		return v.text == other.text
	case KindBool:
		return v.b == other.b
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if v.arr[i] != other.arr[i] {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, f := range v.obj {
			g, ok := other.obj[k]
			if !ok || !f.Equal(g) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for logs and CLI tables.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.text)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, n := range v.arr {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<invalid kind %d>", v.kind)
}

// FromAny converts a decoded YAML or JSON scalar/collection into a Value.
// Integers of any width become numbers. Sequences must contain only numbers.
// Maps must have string keys.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, fmt.Errorf("value: null is not a valid value")
	case Value:
		return t.Clone(), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case []float64:
		return Array(t...), nil
	case []any:
		arr := make([]float64, len(t))
		for i, e := range t {
			n, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("value: array element %d: %w", i, err)
			}
			f, ok := n.AsNumber()
			if !ok {
				return Value{}, fmt.Errorf("value: array element %d is %s, arrays hold numbers only", i, n.Kind())
			}
			arr[i] = f
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			f, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("value: field %q: %w", k, err)
			}
			obj[k] = f
		}
		return Value{kind: KindObject, obj: obj}, nil
	case map[any]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("value: object key %v is not a string", k)
			}
			f, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("value: field %q: %w", ks, err)
			}
			obj[ks] = f
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("value: unsupported type %T", x)
	}
}

// ToAny converts v back into plain Go values (float64, string, bool,
// []float64, map[string]any).
func (v Value) ToAny() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindBool:
		return v.b
	case KindArray:
		out := make([]float64, len(v.arr))
		copy(out, v.arr)
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, f := range v.obj {
			out[k] = f.ToAny()
		}
		return out
	default:
		return v.num
	}
}
