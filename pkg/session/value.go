package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
)

// Kind identifies the JSON type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value stored in a session payload. Numbers keep their
// literal text, so values written by other implementations survive a
// load/save cycle unchanged. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents or number literal
	arr  []Value
	obj  map[string]Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

// Float returns a number value. NaN and infinities become null, as they do
// in JSON.stringify.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	b, _ := json.Marshal(f)
	return Value{kind: KindNumber, s: string(b)}
}

// Number returns a number value from its JSON literal.
func Number(n json.Number) (Value, error) {
	if !json.Valid([]byte(n)) {
		return Value{}, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, string(n))
	}
	if _, err := n.Float64(); err != nil {
		return Value{}, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, string(n))
	}
	return Value{kind: KindNumber, s: string(n)}, nil
}

func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	maps.Copy(obj, fields)
	return Value{kind: KindObject, obj: obj}
}

// ValueOf converts a Go value into a Value. Basic types, slices and maps
// are converted directly; anything else goes through encoding/json.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x.Clone(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Value{kind: KindNumber, s: strconv.FormatUint(uint64(x), 10)}, nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return Value{kind: KindNumber, s: strconv.FormatUint(x, 10)}, nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return Number(x)
	case []Value:
		return Array(x...), nil
	case map[string]Value:
		return Object(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i, item := range x {
			val, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			arr[i] = val
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			val, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = val
		}
		return Value{kind: KindObject, obj: obj}, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}, errors.Join(ErrInvalidValue, err)
	}
	var val Value
	if err := json.Unmarshal(raw, &val); err != nil {
		return Value{}, errors.Join(ErrInvalidValue, err)
	}
	return val, nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsInt returns the number as int64. Integral floats such as 2.0 or 1e3 are
// accepted; fractional values are not.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// AsNumber returns the number literal as stored.
func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.s), true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return slices.Clone(v.arr), true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return maps.Clone(v.obj), true
}

// Interface converts v into plain Go values: nil, bool, string,
// json.Number, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Decode unmarshals v into target, which must be a non-nil pointer.
func (v Value) Decode(target any) error {
	if rv := reflect.ValueOf(target); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer", ErrInvalidValue)
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindObject:
		obj := make(map[string]Value, len(v.obj))
		for k, item := range v.obj {
			obj[k] = item.Clone()
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return v
	}
}

// Equal reports deep equality. Numbers compare by literal text.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber, KindString:
		return v.s == other.s
	case KindArray:
		return slices.EqualFunc(v.arr, other.arr, Value.Equal)
	case KindObject:
		return maps.EqualFunc(v.obj, other.obj, Value.Equal)
	default:
		return false
	}
}

// String returns the JSON encoding of v.
func (v Value) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return "null"
	}
	return string(raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		raw, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(v.obj)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.obj[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidValue, v.kind)
	}
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := fromDecoded(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// fromDecoded converts the output of a UseNumber decoder.
func fromDecoded(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return Value{kind: KindNumber, s: x.String()}, nil
	case []any:
		arr := make([]Value, len(x))
		for i, item := range x {
			val, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			arr[i] = val
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			val, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = val
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected %T", ErrInvalidValue, raw)
	}
}
