package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Kind identifies which variant a Value holds.
type Kind string

const (
	KindBool       Kind = "bool"
	KindInt        Kind = "int"
	KindString     Kind = "string"
	KindStringList Kind = "string_list"
	KindData       Kind = "data"
	// KindRecord is a legacy structured record: a string-keyed map of values.
	KindRecord Kind = "record"
)

// Value is a single settings value. It is a closed tagged variant; use the
// constructors below to build one and the As* accessors to read it back. The
// zero Value is invalid.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	s      string
	list   []string
	data   []byte
	record map[string]Value
}

func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

func String(v string) Value {
	return Value{kind: KindString, s: v}
}

func StringList(v ...string) Value {
	if v == nil {
		v = []string{}
	}
	return Value{kind: KindStringList, list: slices.Clone(v)}
}

func Data(v []byte) Value {
	if v == nil {
		v = []byte{}
	}
	return Value{kind: KindData, data: slices.Clone(v)}
}

func Record(v map[string]Value) Value {
	if v == nil {
		v = map[string]Value{}
	}
	return Value{kind: KindRecord, record: maps.Clone(v)}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsValid returns false for the zero Value.
func (v Value) IsValid() bool {
	return v.kind != ""
}

func (v Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.i, nil
}

func (v Value) AsString() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.s, nil
}

func (v Value) AsStringList() ([]string, error) {
	if err := v.expect(KindStringList); err != nil {
		return nil, err
	}
	return slices.Clone(v.list), nil
}

func (v Value) AsData() ([]byte, error) {
	if err := v.expect(KindData); err != nil {
		return nil, err
	}
	return slices.Clone(v.data), nil
}

func (v Value) AsRecord() (map[string]Value, error) {
	if err := v.expect(KindRecord); err != nil {
		return nil, err
	}
	return maps.Clone(v.record), nil
}

func (v Value) expect(kind Kind) error {
	if v.kind != kind {
		return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, kind, v.kindName())
	}
	return nil
}

func (v Value) kindName() string {
	if v.kind == "" {
		return "invalid"
	}
	return string(v.kind)
}

// Equal reports whether both values hold the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindString:
		return v.s == other.s
	case KindStringList:
		return slices.Equal(v.list, other.list)
	case KindData:
		return slices.Equal(v.data, other.data)
	case KindRecord:
		return maps.EqualFunc(v.record, other.record, Value.Equal)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindStringList:
		return fmt.Sprintf("%q", v.list)
	case KindData:
		return fmt.Sprintf("<%d bytes>", len(v.data))
	case KindRecord:
		keys := make([]string, 0, len(v.record))
		for k := range v.record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("record%q", keys)
	default:
		return "<invalid>"
	}
}

// Size is an approximation of the number of bytes the value occupies.
func (v Value) Size() int {
	switch v.kind {
	case KindBool:
		return 1
	case KindInt:
		return 8
	case KindString:
		return len(v.s)
	case KindStringList:
		var n int
		for _, s := range v.list {
			n += len(s)
		}
		return n
	case KindData:
		return len(v.data)
	case KindRecord:
		var n int
		for k, r := range v.record {
			n += len(k) + r.Size()
		}
		return n
	default:
		return 0
	}
}

type encodedValue struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindBool:
		payload = v.b
	case KindInt:
		payload = v.i
	case KindString:
		payload = v.s
	case KindStringList:
		payload = v.list
	case KindData:
		// encoding/json emits []byte as base64
		payload = v.data
	case KindRecord:
		payload = v.record
	default:
		return nil, errors.New("cannot marshal an invalid value")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s value: %w", v.kind, err)
	}
	return json.Marshal(encodedValue{Kind: v.kind, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var enc encodedValue
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	var err error
	switch enc.Kind {
	case KindBool:
		var b bool
		err = json.Unmarshal(enc.Value, &b)
		*v = Bool(b)
	case KindInt:
		var i int64
		err = json.Unmarshal(enc.Value, &i)
		*v = Int(i)
	case KindString:
		var s string
		err = json.Unmarshal(enc.Value, &s)
		*v = String(s)
	case KindStringList:
		var list []string
		err = json.Unmarshal(enc.Value, &list)
		*v = StringList(list...)
	case KindData:
		var d []byte
		err = json.Unmarshal(enc.Value, &d)
		*v = Data(d)
	case KindRecord:
		var rec map[string]Value
		err = json.Unmarshal(enc.Value, &rec)
		*v = Record(rec)
	default:
		return fmt.Errorf("unrecognized value kind %q", enc.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s value: %w", enc.Kind, err)
	}
	return nil
}

// Plain returns the value as plain Go data, suitable for YAML or JSON
// documents meant for people rather than for round-tripping.
func (v Value) Plain() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindString:
		return v.s
	case KindStringList:
		return slices.Clone(v.list)
	case KindData:
		return slices.Clone(v.data)
	case KindRecord:
		out := make(map[string]any, len(v.record))
		for k, r := range v.record {
			out[k] = r.Plain()
		}
		return out
	default:
		return nil
	}
}
