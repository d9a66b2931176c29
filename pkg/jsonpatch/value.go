package jsonpatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Kind enumerates the JSON value types.
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
		return "unknown"
	}
}

// Value is an immutable JSON document node. Objects remember the order in
// which their members were first added.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	keys []string
	obj  map[string]Value
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }
func String(s string) Value      { return Value{kind: KindString, str: s} }

// Array builds an array value from its items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value{}, items...)}
}

// Member is one key/value pair used to build objects.
type Member struct {
	Key   string
	Value Value
}

// Object builds an object value; later duplicates overwrite earlier ones in place.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, obj: make(map[string]Value, len(members))}
	for _, m := range members {
		if _, ok := v.obj[m.Key]; !ok {
			v.keys = append(v.keys, m.Key)
		}
		v.obj[m.Key] = m.Value
	}
	return v
}

func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Keys returns object member names in order.
func (v Value) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Get returns the member named key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// Index returns the i-th item of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Equal compares two values structurally. Numbers compare by value and
// object member order is ignored.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.str == other.str
	case KindNumber:
		return numbersEqual(v.num, other.num)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for key, member := range v.obj {
			o, ok := other.obj[key]
			if !ok || !member.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// with returns a copy of an object with key set, keeping its position when it exists.
func (v Value) with(key string, member Value) Value {
	out := Value{kind: KindObject, keys: append([]string(nil), v.keys...), obj: make(map[string]Value, len(v.obj)+1)}
	for k, m := range v.obj {
		out.obj[k] = m
	}
	if _, ok := out.obj[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.obj[key] = member
	return out
}

// without returns a copy of an object lacking key.
func (v Value) without(key string) Value {
	out := Value{kind: KindObject, obj: make(map[string]Value, len(v.obj))}
	for _, k := range v.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.obj[k] = v.obj[k]
	}
	return out
}

// inserted returns a copy of an array with item placed at i.
func (v Value) inserted(i int, item Value) Value {
	arr := make([]Value, 0, len(v.arr)+1)
	arr = append(arr, v.arr[:i]...)
	arr = append(arr, item)
	arr = append(arr, v.arr[i:]...)
	return Value{kind: KindArray, arr: arr}
}

// replaced returns a copy of an array with item i swapped.
func (v Value) replaced(i int, item Value) Value {
	arr := append([]Value(nil), v.arr...)
	arr[i] = item
	return Value{kind: KindArray, arr: arr}
}

// removed returns a copy of an array without item i.
func (v Value) removed(i int) Value {
	arr := make([]Value, 0, len(v.arr)-1)
	arr = append(arr, v.arr[:i]...)
	arr = append(arr, v.arr[i+1:]...)
	return Value{kind: KindArray, arr: arr}
}

// MarshalJSON encodes the value keeping object member order.
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
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindString:
		s, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(s)
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
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := v.obj[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON decodes a document keeping object member order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse decodes exactly one JSON document.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after JSON document")
	}
	return v, nil
}

// FromGo converts any JSON-marshalable Go value.
func FromGo(x any) (Value, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, err
	}
	return Parse(data)
}

// ToGo decodes the value into target with unknown object members rejected.
func (v Value) ToGo(target any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindArray, arr: items}, nil
		case '{':
			out := Value{kind: KindObject, obj: map[string]Value{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key must be a string, got %v", keyTok)
				}
				member, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				if _, dup := out.obj[key]; !dup {
					out.keys = append(out.keys, key)
				}
				out.obj[key] = member
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return out, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ra, okA := new(big.Rat).SetString(a.String())
	rb, okB := new(big.Rat).SetString(b.String())
	return okA && okB && ra.Cmp(rb) == 0
}
