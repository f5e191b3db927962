// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpidata

import (
	"bytes"
	"fmt"
	"github.com/mitchellh/mapstructure"
	"github.com/ugorji/go/codec"
	"io"
	"mime"
	"reflect"
	"sort"
	"strconv"
)

// JSONMediaType is the media type GLPI uses for request and response
// bodies.
const JSONMediaType = "application/json"

// OctetStreamMediaType requests raw document content.
const OctetStreamMediaType = "application/octet-stream"

// ErrUnsupportedMediaType is returned from Decode() if the provided
// Content-Type: is not a JSON type.
type ErrUnsupportedMediaType struct {
	Type string
}

func (e ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("Unsupported media type %q", e.Type)
}

// JSONHandle returns a codec handle that decodes JSON objects into
// map[string]interface{}, which is what the rest of this package
// expects to find inside untyped values.
func JSONHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// Decode decodes a JSON object from a reader, such as an HTTP request
// or response body.  out must be a pointer type.  An empty
// contentType is accepted and treated as JSON, since several GLPI
// versions omit the header on small responses.
func Decode(contentType string, r io.Reader, out interface{}) error {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return err
		}
		switch mediaType {
		case "text/json", JSONMediaType, "text/html", "text/plain":
			// PHP error handlers regularly send JSON as
			// text/html; accept it.
		default:
			return ErrUnsupportedMediaType{Type: mediaType}
		}
	}
	decoder := codec.NewDecoder(r, JSONHandle())
	return decoder.Decode(out)
}

// Encode produces the JSON encoding of in.
func Encode(in interface{}) ([]byte, error) {
	var out []byte
	encoder := codec.NewEncoderBytes(&out, JSONHandle())
	err := encoder.Encode(in)
	return out, err
}

// DecodeWeak copies an untyped decoded value (maps, slices, numbers)
// into a typed structure, converting between numbers, strings and
// booleans as needed.  out must be a pointer type.
func DecodeWeak(in, out interface{}) error {
	config := mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	}
	decoder, err := mapstructure.NewDecoder(&config)
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

// DecodeSearchResult converts a decoded search response body into a
// SearchResult.  Rows are returned in server order; if the server
// returned an object keyed by item id (withindexes), rows are ordered
// by numeric key.
func DecodeSearchResult(body interface{}) (*SearchResult, error) {
	result := &SearchResult{Data: []Item{}}
	obj, ok := body.(map[string]interface{})
	if !ok {
		if body == nil {
			return result, nil
		}
		return nil, fmt.Errorf("search response is %T, not an object", body)
	}
	if err := DecodeWeak(obj, result); err != nil {
		return nil, err
	}
	switch data := obj["data"].(type) {
	case []interface{}:
		result.Data = ToItems(data)
	case map[string]interface{}:
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, aErr := strconv.Atoi(keys[i])
			b, bErr := strconv.Atoi(keys[j])
			if aErr == nil && bErr == nil {
				return a < b
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			result.Data = append(result.Data, ToItems(data[k])...)
		}
	}
	return result, nil
}

// ToItems interprets an untyped decoded value as a list of items.  A
// single object becomes a one-element list; anything that is not an
// object is skipped.
func ToItems(v interface{}) []Item {
	switch vv := v.(type) {
	case map[string]interface{}:
		return []Item{Item(vv)}
	case Item:
		return []Item{vv}
	case []interface{}:
		items := make([]Item, 0, len(vv))
		for _, elem := range vv {
			if m, ok := elem.(map[string]interface{}); ok {
				items = append(items, Item(m))
			}
		}
		return items
	case []Item:
		return vv
	}
	return []Item{}
}

// IntValue interprets a decoded JSON value as an integer.  GLPI
// sometimes returns ids as strings.
func IntValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), float64(int(n)) == n
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// ID returns the "id" field of an item.
func (i Item) ID() (int, bool) {
	return IntValue(i["id"])
}

// String returns a field of an item rendered as a string, or the
// empty string if it is absent.
func (i Item) String(field string) string {
	v, present := i[field]
	if !present || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := IntValue(v); ok {
		return strconv.Itoa(n)
	}
	b, err := Encode(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(bytes.TrimSpace(b))
}
