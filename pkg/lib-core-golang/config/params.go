package config

import "time"

type paramID struct {
	key     string
	service string
}

func (id paramID) String() string {
	return "{key: " + id.key + "; service: " + id.service + "}"
}

type param interface {
	id() paramID
	emptyValue() paramValue
}

// StringParam represents params of string type
type StringParam struct {
	paramID
}

func newStringParam(key string, service string) StringParam {
	return StringParam{paramID{key: key, service: service}}
}

func (p StringParam) id() paramID {
	return p.paramID
}

func (p StringParam) emptyValue() paramValue {
	return StringVal{val: new(string)}
}

// IntParam represents params of int type
type IntParam struct {
	paramID
}

func newIntParam(key string, service string) IntParam {
	return IntParam{paramID{key: key, service: service}}
}

func (p IntParam) id() paramID {
	return p.paramID
}

func (p IntParam) emptyValue() paramValue {
	return IntVal{val: new(int)}
}

// BoolParam represents params of bool type
type BoolParam struct {
	paramID
}

func newBoolParam(key string, service string) BoolParam {
	return BoolParam{paramID{key: key, service: service}}
}

func (p BoolParam) id() paramID {
	return p.paramID
}

func (p BoolParam) emptyValue() paramValue {
	return BoolVal{val: new(bool)}
}

// DurationParam represents params of time.Duration type
type DurationParam struct {
	paramID
}

func newDurationParam(key string, service string) DurationParam {
	return DurationParam{paramID{key: key, service: service}}
}

func (p DurationParam) id() paramID {
	return p.paramID
}

func (p DurationParam) emptyValue() paramValue {
	return DurationVal{val: new(time.Duration)}
}
