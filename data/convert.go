package data

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshaler is implemented by types that convert themselves into a Value.
type Marshaler interface {
	MarshalValue() Value
}

// New converts the given data into a template data value, using
// DefaultStructOptions for structs.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// NewWith converts the given data value into a template data value, using
// the provided StructOptions for any structs encountered.
func NewWith(convert StructOptions, value interface{}) Value {
	// quick return if we're passed an existing data.Value
	if val, ok := value.(Value); ok {
		return val
	}
	if m, ok := value.(Marshaler); ok {
		return m.MarshalValue()
	}

	if value == nil {
		return Null{}
	}

	// drill through pointers and interfaces to the underlying type
	var v = reflect.ValueOf(value)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return Null{}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}
	if v.CanInterface() {
		if m, ok := v.Interface().(Marshaler); ok {
			return m.MarshalValue()
		}
	}

	if v.Type() == timeType {
		return String(v.Interface().(time.Time).Format(convert.TimeFormat))
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return List{}
		}
		slice := make(List, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			slice = append(slice, NewWith(convert, v.Index(i).Interface()))
		}
		return slice
	case reflect.Map:
		var m = make(Map, v.Len())
		for _, key := range v.MapKeys() {
			if key.Kind() != reflect.String {
				panic("map keys must be strings")
			}
			m[key.String()] = NewWith(convert, v.MapIndex(key).Interface())
		}
		return m
	case reflect.Struct:
		return convert.Data(v.Interface())
	default:
		panic(fmt.Errorf("unexpected data type: %T (%v)", value, value))
	}
}

// Export converts a Value back into plain Go values: nil, bool, int64,
// float64, string, []interface{} and map[string]interface{}.
func Export(v Value) interface{} {
	switch v := v.(type) {
	case Undefined, Null, nil:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Safe:
		return string(v)
	case List:
		var out = make([]interface{}, len(v))
		for i, item := range v {
			out[i] = Export(item)
		}
		return out
	case Map:
		var out = make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = Export(item)
		}
		return out
	}
	return v.String()
}

var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// StructOptions provides flexibility in conversion of structs to data.Map.
// A `liquid:"name"` field tag overrides the key; `liquid:"-"` skips the field.
type StructOptions struct {
	LowerCamel bool   // if true, convert field names to lowerCamel.
	TimeFormat string // format string for time.Time. (if empty, use ISO-8601)
}

func (c StructOptions) Data(obj interface{}) Map {
	var m = make(Map)
	var v = reflect.ValueOf(obj)
	var valType = v.Type()
	for i := 0; i < valType.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		var field = valType.Field(i)
		var key = field.Name
		if tag, ok := field.Tag.Lookup("liquid"); ok {
			tag = strings.Split(tag, ",")[0]
			if tag == "-" {
				continue
			}
			if tag != "" {
				m[tag] = NewWith(c, v.Field(i).Interface())
				continue
			}
		}
		if c.LowerCamel {
			var firstRune, size = utf8.DecodeRuneInString(key)
			key = string(unicode.ToLower(firstRune)) + key[size:]
		}
		m[key] = NewWith(c, v.Field(i).Interface())
	}
	return m
}
