package depgraph

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ValueType represents the type of a component attribute value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDuration
)

// Well-known attribute keys. Every component carries both duration
// attributes; anything else is opaque to the engine.
const (
	AttrStartup  = "startup"
	AttrShutdown = "shutdown"
)

// Value represents a typed attribute value
type Value struct {
	Type ValueType
	Data []byte
}

// Helper functions to create typed values

func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

func DurationValue(d time.Duration) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(d.Nanoseconds()))
	return Value{Type: TypeDuration, Data: data}
}

// Decode methods

func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

func (v Value) AsDuration() (time.Duration, error) {
	if v.Type != TypeDuration {
		return 0, fmt.Errorf("value is not a duration")
	}
	return time.Duration(binary.LittleEndian.Uint64(v.Data)), nil
}

// String renders the value for human-readable output
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		i, _ := v.AsInt()
		return fmt.Sprintf("%d", i)
	case TypeFloat:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case TypeBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%t", b)
	case TypeDuration:
		d, _ := v.AsDuration()
		return d.String()
	default:
		return "?"
	}
}

// Attributes is the opaque attribute mapping carried by each component.
type Attributes map[string]Value

// Durations builds the minimal attribute set every component needs.
func Durations(startup, shutdown time.Duration) Attributes {
	return Attributes{
		AttrStartup:  DurationValue(startup),
		AttrShutdown: DurationValue(shutdown),
	}
}

// Duration returns the duration stored under key.
func (a Attributes) Duration(key string) (time.Duration, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("attribute %q not set", key)
	}
	return v.AsDuration()
}

// Clone creates a copy of the attribute map. Value data is shared;
// values are never mutated in place.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	clone := make(Attributes, len(a))
	for k, v := range a {
		clone[k] = v
	}
	return clone
}
