package models

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"
)

// Document is an arbitrary JSON object owned by a user under a data key.
type Document map[string]any

// MarshalCompact encodes d as compact JSON with object keys sorted, so equal
// documents always produce the same text. A nil document encodes as "{}".
// Strings (keys included) must be valid UTF-8; json.Marshal would otherwise
// replace the bad bytes with U+FFFD and the stored value would differ.
func (d Document) MarshalCompact() (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return "", err
	}
	if err := checkUTF8(reflect.ValueOf(map[string]any(d)), "$"); err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// checkUTF8 walks the values json.Marshal encodes and reports the first
// string that is not valid UTF-8. It runs after a successful Marshal, so v
// holds no cycles.
func checkUTF8(v reflect.Value, path string) error {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface || !v.IsNil() {
		if v.Type().Implements(jsonMarshalerType) {
			out, err := v.Interface().(json.Marshaler).MarshalJSON()
			if err == nil && !utf8.Valid(out) {
				return fmt.Errorf("invalid UTF-8 at %s", path)
			}
			return nil
		}
		if v.Type().Implements(textMarshalerType) {
			out, err := v.Interface().(encoding.TextMarshaler).MarshalText()
			if err == nil && !utf8.Valid(out) {
				return fmt.Errorf("invalid UTF-8 at %s", path)
			}
			return nil
		}
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("invalid UTF-8 at %s", path)
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return checkUTF8(v.Elem(), path)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return fmt.Errorf("invalid UTF-8 in key at %s", path)
			}
			if err := checkUTF8(iter.Value(), fmt.Sprintf("%s.%v", path, k)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		// byte slices are encoded as base64
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkUTF8(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkUTF8(v.Field(i), path+"."+f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseDocument decodes s into a Document. The text must hold a JSON object.
// Numbers are kept as json.Number so integers survive the round trip.
func ParseDocument(s string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after document")
	}
	if d == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return d, nil
}

// UserDataEntry is one stored document identified by (UserID, Key).
type UserDataEntry struct {
	UserID    string
	Key       string
	Data      Document
	CreatedAt time.Time
	UpdatedAt time.Time
}
