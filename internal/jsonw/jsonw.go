// Package jsonw builds JSON objects that keep key insertion order.
package jsonw

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotInteger is returned by PutInteger for non-numeric input.
var ErrNotInteger = errors.New("value is not an integer")

// ErrNotBoolean is returned by PutBoolean for input other than true/false.
var ErrNotBoolean = errors.New("value is not a boolean")

// Object is an insertion-ordered JSON object.
type Object struct {
	keys []string
	vals map[string]any
}

// New returns an empty Object.
func New() *Object {
	return &Object{vals: make(map[string]any)}
}

// Put sets key to v. Re-putting a key keeps its original position.
// v must be encodable by encoding/json.
func (o *Object) Put(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// PutString sets a string value.
func (o *Object) PutString(key, v string) {
	o.Put(key, v)
}

// PutInt sets an integer value.
func (o *Object) PutInt(key string, v int) {
	o.Put(key, v)
}

// PutInteger parses s as a base-10 integer and stores it.
func (o *Object) PutInteger(key, s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrNotInteger, key, s)
	}
	o.Put(key, v)
	return nil
}

// PutBool sets a boolean value.
func (o *Object) PutBool(key string, v bool) {
	o.Put(key, v)
}

// PutBoolean parses s ("true"/"false", "Y"/"N") and stores it.
func (o *Object) PutBoolean(key, s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "y", "yes":
		o.Put(key, true)
	case "false", "n", "no":
		o.Put(key, false)
	default:
		return fmt.Errorf("%w: %s=%q", ErrNotBoolean, key, s)
	}
	return nil
}

// PutObject sets a nested object.
func (o *Object) PutObject(key string, v *Object) {
	o.Put(key, v)
}

// PutArray sets an array of objects. A nil slice encodes as [].
func (o *Object) PutArray(key string, v []*Object) {
	if v == nil {
		v = []*Object{}
	}
	o.Put(key, v)
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Indent renders o as tab-indented JSON.
func Indent(o *Object) ([]byte, error) {
	return json.MarshalIndent(o, "", "\t")
}
