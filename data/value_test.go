package data

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Ensure all of the data types implement Value
var (
	_ Value = Undefined{}
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = Float(0.0)
	_ Value = String("")
	_ Value = Safe("")
	_ Value = List{}
	_ Value = Map{}
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		input    Value
		expected bool
	}{
		{Undefined{}, false},
		{Null{}, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), true},
		{Float(0), true},
		{Float(math.NaN()), false},
		{String(""), true},
		{List{}, true},
		{Map{}, true},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.input.Truthy(), "%#v", test.input)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input    Value
		expected string
	}{
		{Undefined{}, ""},
		{Null{}, ""},
		{Bool(true), "true"},
		{Int(-3), "-3"},
		{Float(1.5), "1.5"},
		{String("a'b"), "a'b"},
		{Safe("<b>"), "<b>"},
		{List{String("a"), Int(1)}, "a1"},
		{Map{"b": Int(2), "a": Int(1)}, "{a: 1, b: 2}"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.input.String(), "%#v", test.input)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		input    interface{}
		key      string
		expected interface{}
	}{
		{map[string]interface{}{}, "foo", Undefined{}},
		{map[string]interface{}{"foo": nil}, "foo", Null{}},
	}

	for _, test := range tests {
		actual := New(test.input).(Map).Key(test.key)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		input    interface{}
		index    int
		expected interface{}
	}{
		{[]interface{}{}, 0, Undefined{}},
		{[]interface{}{1}, 0, Int(1)},
		{[]interface{}{1, 2}, -1, Int(2)},
		{[]interface{}{1, 2}, -3, Undefined{}},
	}

	for _, test := range tests {
		actual := New(test.input).(List).Index(test.index)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestEquals(t *testing.T) {
	var list = List{Int(1)}
	assert.True(t, Int(1).Equals(Float(1)))
	assert.True(t, Float(2).Equals(Int(2)))
	assert.True(t, String("a").Equals(Safe("a")))
	assert.True(t, Null{}.Equals(Undefined{}))
	assert.True(t, list.Equals(list))
	assert.False(t, list.Equals(List{Int(1)}))
	assert.False(t, String("1").Equals(Int(1)))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Value
		cmp  int
		ok   bool
	}{
		{Int(1), Int(2), -1, true},
		{Float(2.5), Int(2), 1, true},
		{String("b"), String("a"), 1, true},
		{String("a"), Safe("a"), 0, true},
		{String("1"), Int(1), 0, false},
		{Null{}, Int(1), 0, false},
	}
	for _, test := range tests {
		cmp, ok := Compare(test.a, test.b)
		assert.Equal(t, test.ok, ok, "%v <=> %v", test.a, test.b)
		assert.Equal(t, test.cmp, cmp, "%v <=> %v", test.a, test.b)
	}
}

func TestSizeAndEmpty(t *testing.T) {
	assert.Equal(t, 3, Size(String("héé")))
	assert.Equal(t, 2, Size(List{Null{}, Null{}}))
	assert.Equal(t, 0, Size(Int(10)))
	assert.True(t, IsEmpty(Undefined{}))
	assert.True(t, IsEmpty(String("")))
	assert.True(t, IsEmpty(Map{}))
	assert.False(t, IsEmpty(Int(0)))
}

func TestNumber(t *testing.T) {
	f, ok := Number(String(" 4.5 "))
	assert.True(t, ok)
	assert.Equal(t, 4.5, f)
	_, ok = Number(String("four"))
	assert.False(t, ok)
	f, ok = Number(Int(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
}
