// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpidata

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func decodeString(t *testing.T, s string) interface{} {
	var v interface{}
	require.NoError(t, Decode(JSONMediaType, strings.NewReader(s), &v))
	return v
}

func TestDecodeMediaTypes(t *testing.T) {
	var obj interface{}
	assert.NoError(t, Decode("application/json; charset=UTF-8", strings.NewReader(`{}`), &obj))
	assert.IsType(t, map[string]interface{}{}, obj)

	var list interface{}
	assert.NoError(t, Decode("", strings.NewReader(`[]`), &list))
	assert.IsType(t, []interface{}{}, list)
	assert.Len(t, list, 0)

	var v interface{}
	err := Decode("image/png", strings.NewReader(`{}`), &v)
	assert.Equal(t, ErrUnsupportedMediaType{Type: "image/png"}, err)
}

func TestEncodeUsesJSONTags(t *testing.T) {
	b, err := Encode(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(b))

	b, err = Encode(SearchResult{TotalCount: 2, Data: []Item{{"1": "pc"}}})
	require.NoError(t, err)
	var back map[string]interface{}
	require.NoError(t, Decode("", bytes.NewReader(b), &back))
	assert.Contains(t, back, "totalcount")
	assert.Contains(t, back, "data")
	assert.NotContains(t, back, "content_range")
}

func TestDecodeObjectsAreStringKeyed(t *testing.T) {
	v := decodeString(t, `{"a": {"b": [{"c": 1}]}}`)
	outer, ok := v.(map[string]interface{})
	require.True(t, ok, "%T", v)
	inner, ok := outer["a"].(map[string]interface{})
	require.True(t, ok, "%T", outer["a"])
	items := ToItems(inner["b"])
	if assert.Len(t, items, 1) {
		n, ok := IntValue(items[0]["c"])
		assert.True(t, ok)
		assert.Equal(t, 1, n)
	}
}

func TestDecodeWeakProfiles(t *testing.T) {
	body := decodeString(t, `[
		{"id": 2, "name": "Observer",
		 "entities": [{"id": 0, "name": "Root entity", "is_recursive": 1}]},
		{"id": "8", "name": "Read-Only", "entities": []}
	]`)
	var profiles []Profile
	require.NoError(t, DecodeWeak(body, &profiles))
	assert.Equal(t, []Profile{
		{
			ID:   2,
			Name: "Observer",
			Entities: []Entity{
				{ID: 0, Name: "Root entity", IsRecursive: true},
			},
		},
		{ID: 8, Name: "Read-Only", Entities: []Entity{}},
	}, profiles)
}

func TestDecodeWeakActiveEntity(t *testing.T) {
	body := decodeString(t, `{"id": 0, "active_entity_recursive": false,
		"active_entities": [{"id": 0}, {"id": 3}]}`)
	var active ActiveEntity
	require.NoError(t, DecodeWeak(body, &active))
	assert.Equal(t, ActiveEntity{
		ID:             0,
		ActiveEntities: []EntityRef{{ID: 0}, {ID: 3}},
	}, active)
}

func TestDecodeSearchResult(t *testing.T) {
	body := decodeString(t, `{"totalcount": 3, "count": 2, "sort": 1, "order": "ASC",
		"data": [{"1": "pc1", "80": "Root"}, {"1": "pc2", "80": "Root"}]}`)
	result, err := DecodeSearchResult(body)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "ASC", result.Order)
	if assert.Len(t, result.Data, 2) {
		assert.Equal(t, "pc1", result.Data[0].String("1"))
		assert.Equal(t, "pc2", result.Data[1].String("1"))
	}
}

func TestDecodeSearchResultIndexed(t *testing.T) {
	body := decodeString(t, `{"totalcount": 2, "count": 2,
		"data": {"10": {"1": "ten"}, "9": {"1": "nine"}}}`)
	result, err := DecodeSearchResult(body)
	require.NoError(t, err)
	if assert.Len(t, result.Data, 2) {
		assert.Equal(t, "nine", result.Data[0].String("1"))
		assert.Equal(t, "ten", result.Data[1].String("1"))
	}
}

func TestDecodeSearchResultNoData(t *testing.T) {
	body := decodeString(t, `{"totalcount": 0, "count": 0}`)
	result, err := DecodeSearchResult(body)
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)

	_, err = DecodeSearchResult([]interface{}{})
	assert.Error(t, err)
}

func TestParseErrorDocument(t *testing.T) {
	doc, ok := ParseErrorDocument([]byte(`["ERROR_ITEM_NOT_FOUND", "Item not found"]`))
	assert.True(t, ok)
	assert.Equal(t, ErrorDocument{Key: ErrorItemNotFound, Message: "Item not found"}, doc)

	for _, body := range []string{``, `{}`, `[]`, `[1, 2]`, `<html>`} {
		_, ok := ParseErrorDocument([]byte(body))
		assert.False(t, ok, "%q", body)
	}

	b, err := ErrorDocument{Key: "K", Message: "m"}.MarshalBody()
	require.NoError(t, err)
	doc, ok = ParseErrorDocument(b)
	assert.True(t, ok)
	assert.Equal(t, ErrorDocument{Key: "K", Message: "m"}, doc)
}

func TestItemAccessors(t *testing.T) {
	item := Item(decodeString(t, `{"id": "12", "name": "pc", "serial": null, "is_deleted": false}`).(map[string]interface{}))
	id, ok := item.ID()
	assert.True(t, ok)
	assert.Equal(t, 12, id)
	assert.Equal(t, "pc", item.String("name"))
	assert.Equal(t, "", item.String("serial"))
	assert.Equal(t, "", item.String("missing"))
	assert.Equal(t, "false", item.String("is_deleted"))
}

func TestEncode(t *testing.T) {
	b, err := Encode(map[string]interface{}{"input": []Item{{"name": "x"}}})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(b, []byte(`"input"`)), string(b))
	assert.True(t, bytes.Contains(b, []byte(`"name":"x"`)), string(b))
}
