package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues_setValue(t *testing.T) {
	type testCase struct {
		name    string
		value   paramValue
		raw     interface{}
		want    interface{}
		get     func(v paramValue) interface{}
		wantErr bool
	}
	getInt := func(v paramValue) interface{} { return v.(IntVal).Value() }
	getBool := func(v paramValue) interface{} { return v.(BoolVal).Value() }
	getStr := func(v paramValue) interface{} { return v.(StringVal).Value() }
	getDuration := func(v paramValue) interface{} { return v.(DurationVal).Value() }
	tests := []func() testCase{
		func() testCase {
			return testCase{name: "string", value: NewStringVal(""), raw: "abc", want: "abc", get: getStr}
		},
		func() testCase {
			return testCase{name: "string from number", value: NewStringVal(""), raw: 10, wantErr: true}
		},
		func() testCase {
			return testCase{name: "int from float", value: NewIntVal(0), raw: float64(10), want: 10, get: getInt}
		},
		func() testCase {
			return testCase{name: "int from string", value: NewIntVal(0), raw: "33", want: 33, get: getInt}
		},
		func() testCase {
			return testCase{name: "int from bad string", value: NewIntVal(0), raw: "x33", wantErr: true}
		},
		func() testCase {
			return testCase{name: "bool", value: NewBoolVal(false), raw: true, want: true, get: getBool}
		},
		func() testCase {
			return testCase{name: "bool from string", value: NewBoolVal(true), raw: "false", want: false, get: getBool}
		},
		func() testCase {
			return testCase{name: "duration from string", value: NewDurationVal(0), raw: "1m30s", want: 90 * time.Second, get: getDuration}
		},
		func() testCase {
			return testCase{name: "duration from seconds", value: NewDurationVal(0), raw: float64(2), want: 2 * time.Second, get: getDuration}
		},
		func() testCase {
			return testCase{name: "duration from bad string", value: NewDurationVal(0), raw: "soon", wantErr: true}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.setValue(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.want, tt.get(tt.value))
		})
	}
}
