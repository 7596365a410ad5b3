package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// object is a decoded JSON object that remembers member order.
type object struct {
	keys []string
	vals map[string]json.RawMessage
}

func (o *object) get(key string) (json.RawMessage, bool) {
	v, ok := o.vals[key]
	if !ok || kindOf(v) == kindNull {
		return nil, false
	}
	return v, true
}

type kind int

const (
	kindInvalid kind = iota
	kindNull
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

func (k kind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindBool:
		return "boolean"
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindArray:
		return "array"
	case kindObject:
		return "object"
	}
	return "invalid"
}

func kindOf(raw json.RawMessage) kind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return kindInvalid
	}
	switch b[0] {
	case '{':
		return kindObject
	case '[':
		return kindArray
	case '"':
		return kindString
	case 'n':
		return kindNull
	case 't', 'f':
		return kindBool
	}
	return kindNumber
}

// decodeObject reads a JSON object keeping member order. A repeated key
// keeps its first position and its last value.
func decodeObject(raw json.RawMessage) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}
	o := &object{vals: make(map[string]json.RawMessage)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if _, seen := o.vals[key]; !seen {
			o.keys = append(o.keys, key)
		}
		o.vals[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// reader pulls typed fields out of objects, recording an issue for each
// field whose JSON type is wrong. Absent and null fields are not issues.
type reader struct {
	issues issues
}

func (r *reader) object(raw json.RawMessage, path string) *object {
	if k := kindOf(raw); k != kindObject {
		r.issues.add(path, "expected object, received %s", k)
		return nil
	}
	o, err := decodeObject(raw)
	if err != nil {
		r.issues.add(path, "invalid object: %v", err)
		return nil
	}
	return o
}

func (r *reader) optObject(o *object, field, path string) *object {
	v, ok := o.get(field)
	if !ok {
		return nil
	}
	return r.object(v, path)
}

// str returns the field's string value and whether it was present.
func (r *reader) str(o *object, field, path string) (string, bool) {
	v, ok := o.get(field)
	if !ok {
		return "", false
	}
	if k := kindOf(v); k != kindString {
		r.issues.add(path, "expected string, received %s", k)
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		r.issues.add(path, "invalid string: %v", err)
		return "", false
	}
	return s, true
}

func (r *reader) strings(o *object, field, path string) ([]string, bool) {
	v, ok := o.get(field)
	if !ok {
		return nil, false
	}
	if k := kindOf(v); k != kindArray {
		r.issues.add(path, "expected array, received %s", k)
		return nil, false
	}
	elems, err := decodeArray(v)
	if err != nil {
		r.issues.add(path, "invalid array: %v", err)
		return nil, false
	}
	out := make([]string, 0, len(elems))
	for i, e := range elems {
		if k := kindOf(e); k != kindString {
			r.issues.add(join(path, strconv.Itoa(i)), "expected string, received %s", k)
			continue
		}
		var s string
		_ = json.Unmarshal(e, &s)
		out = append(out, s)
	}
	return out, true
}

// id accepts a string or a number; numbers are rendered the way they read.
func (r *reader) id(o *object, field, path string) (string, bool) {
	v, ok := o.get(field)
	if !ok {
		return "", false
	}
	switch kindOf(v) {
	case kindString:
		var s string
		_ = json.Unmarshal(v, &s)
		return s, true
	case kindNumber:
		return numberString(bytes.TrimSpace(v)), true
	}
	r.issues.add(path, "expected string or number, received %s", kindOf(v))
	return "", false
}

func numberString(raw []byte) string {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.Abs(f) >= 1e21 {
		return string(raw)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
